package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/lingualoop/lingualoop/internal/llm"
	"github.com/lingualoop/lingualoop/internal/rating"
	"github.com/lingualoop/lingualoop/internal/store"
)

func newTestService(t *testing.T) (*Service, *llm.MockProvider, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Config{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	mock := llm.NewMockProvider()
	svc := NewService(st, mock, DefaultConfig(), zap.NewNop())
	return svc, mock, st
}

func seedScenario(t *testing.T, st *store.Store, targetCEFR string) *store.Scenario {
	t.Helper()
	sc := &store.Scenario{
		LanguageID:     "de",
		Title:          "At the bakery",
		Topic:          "ordering food",
		TargetCEFR:     targetCEFR,
		OpeningOptions: datatypes.JSON(`["Ein Brot, bitte.","Was kostet das?"]`),
		Hints:          datatypes.JSON(`["das Brot","die Bäckerei"]`),
	}
	if err := st.Scenarios().Create(context.Background(), nil, sc); err != nil {
		t.Fatalf("seed scenario: %v", err)
	}
	return sc
}

func turnResponse(score float64) llm.MockResponse {
	payload := map[string]any{
		"reply": "Sehr gut! Und was möchten Sie trinken?",
		"evaluation": map[string]any{
			"grammar_accuracy":   score,
			"lexical_complexity": score,
			"fluency":            score,
			"register":           score,
		},
		"corrections": []string{},
	}
	raw, _ := json.Marshal(payload)
	return llm.MockResponse{Content: raw}
}

func TestStartControlledSurfacesOptions(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Guten Tag! Was darf es sein?")})

	res, err := svc.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.AIMessage != "Guten Tag! Was darf es sein?" {
		t.Errorf("AIMessage = %q", res.AIMessage)
	}
	if len(res.Options) != 2 {
		t.Errorf("controlled mode should surface options, got %v", res.Options)
	}
	if len(res.Hints) != 0 {
		t.Errorf("controlled mode should not surface hints, got %v", res.Hints)
	}
	// No skill ratings yet: seed is 1200, which maps to B1.
	if res.UserCEFR != "B1" {
		t.Errorf("UserCEFR = %q, want B1", res.UserCEFR)
	}

	session, err := st.Sessions().Get(ctx, nil, res.SessionID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if session.State != store.SessionStateActive {
		t.Errorf("session state = %q, want active", session.State)
	}
}

func TestStartGuidedSurfacesHints(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	// Unlock guided first by completing a controlled session.
	completeSessionInMode(t, svc, mock, st, learner, sc.ID, ModeControlled)

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	res, err := svc.Start(ctx, learner, sc.ID, ModeGuided)
	if err != nil {
		t.Fatalf("Start guided: %v", err)
	}
	if len(res.Hints) != 2 {
		t.Errorf("guided mode should surface hints, got %v", res.Hints)
	}
	if len(res.Options) != 0 {
		t.Errorf("guided mode should not surface options, got %v", res.Options)
	}
}

func TestStartLockedModeRejected(t *testing.T) {
	svc, _, st := newTestService(t)
	sc := seedScenario(t, st, "B1")

	_, err := svc.Start(context.Background(), uuid.New(), sc.ID, ModeOpen)
	if !errors.Is(err, ErrLockedMode) {
		t.Fatalf("err = %v, want ErrLockedMode", err)
	}
}

func TestStartUnknownScenario(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Start(context.Background(), uuid.New(), uuid.New(), ModeControlled)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRespondUpdatesSkillsAndSession(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Guten Tag!")})
	started, err := svc.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	mock.AddResponse(turnResponse(0.8))
	res, err := svc.Respond(ctx, learner, started.SessionID, "Ein Brot, bitte.")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if res.AIReply == "" {
		t.Error("empty reply")
	}
	if res.Evaluation.CompositeScore != 0.8 {
		t.Errorf("composite = %v, want 0.8", res.Evaluation.CompositeScore)
	}

	// Every core skill starts at 1000/350/0 against the B1 anchor.
	bands, _ := st.Bands().ForLanguage(ctx, "de")
	anchor := rating.BandAnchor("B1", bands)
	expected := rating.ExpectedScore(rating.DefaultRating, anchor)
	k := rating.KFactor(rating.DefaultRD, 0, rating.DefaultRating)
	wantDelta := rating.ScaledUpdate(rating.DefaultRating, k, ModeControlled.Multiplier(), 0.8, expected) - rating.DefaultRating

	for _, skill := range CoreSkills {
		if got := res.RatingDeltas[skill]; got != wantDelta {
			t.Errorf("delta[%s] = %d, want %d", skill, got, wantDelta)
		}
		row, err := st.SkillRatings().GetOrCreate(ctx, nil, learner, "de", skill)
		if err != nil {
			t.Fatalf("load %s: %v", skill, err)
		}
		if row.Rating != rating.DefaultRating+wantDelta {
			t.Errorf("%s rating = %d, want %d", skill, row.Rating, rating.DefaultRating+wantDelta)
		}
		if row.RD != rating.DefaultRD-rating.RDDecayStep {
			t.Errorf("%s rd = %d, want %d", skill, row.RD, rating.DefaultRD-rating.RDDecayStep)
		}
		if row.Attempts != 1 {
			t.Errorf("%s attempts = %d, want 1", skill, row.Attempts)
		}
	}

	session, err := st.Sessions().Get(ctx, nil, started.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	var history []Message
	if err := json.Unmarshal(session.Messages, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	// opening + user turn + reply
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[1].Role != RoleUser || history[2].Role != RoleAssistant {
		t.Errorf("unexpected history roles: %+v", history)
	}
	if session.CompositeCount != 1 || session.CompositeSum != 0.8 {
		t.Errorf("composite sum/count = %v/%d", session.CompositeSum, session.CompositeCount)
	}

	profile, err := st.Profiles().GetOrCreate(ctx, nil, learner, "de", bands)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if profile.StreakCount != 1 {
		t.Errorf("streak = %d, want 1", profile.StreakCount)
	}
	if profile.LastActiveAt == nil {
		t.Error("last active not set")
	}
}

func TestControlledMovesHalfOfOpen(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")

	// Two fresh learners with identical state; only the mode differs.
	controlledLearner := uuid.New()
	openLearner := uuid.New()

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	controlled, err := svc.Start(ctx, controlledLearner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start controlled: %v", err)
	}

	// Unlock open for the second learner with two turnless completions,
	// which leave their ratings untouched.
	completeSessionInMode(t, svc, mock, st, openLearner, sc.ID, ModeControlled)
	completeSessionInMode(t, svc, mock, st, openLearner, sc.ID, ModeGuided)

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	open, err := svc.Start(ctx, openLearner, sc.ID, ModeOpen)
	if err != nil {
		t.Fatalf("Start open: %v", err)
	}

	mock.AddResponse(turnResponse(0.8))
	controlledRes, err := svc.Respond(ctx, controlledLearner, controlled.SessionID, "Ein Brot, bitte.")
	if err != nil {
		t.Fatalf("Respond controlled: %v", err)
	}
	mock.AddResponse(turnResponse(0.8))
	openRes, err := svc.Respond(ctx, openLearner, open.SessionID, "Ein Brot, bitte.")
	if err != nil {
		t.Fatalf("Respond open: %v", err)
	}

	for _, skill := range CoreSkills {
		c := controlledRes.RatingDeltas[skill]
		o := openRes.RatingDeltas[skill]
		if o <= c {
			t.Errorf("%s: open delta %d should exceed controlled delta %d", skill, o, c)
		}
		// Controlled is half the movement of open, up to rounding.
		if diff := o - 2*c; diff < -1 || diff > 1 {
			t.Errorf("%s: controlled delta %d is not half of open delta %d", skill, c, o)
		}
	}
}

func TestRespondGatewayFailureLeavesSessionUntouched(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Guten Tag!")})
	started, err := svc.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	mock.AddResponse(llm.MockResponse{Err: &llm.ErrQuotaExhausted{}})
	_, err = svc.Respond(ctx, learner, started.SessionID, "Ein Brot, bitte.")
	var quota *llm.ErrQuotaExhausted
	if !errors.As(err, &quota) {
		t.Fatalf("err = %v, want ErrQuotaExhausted", err)
	}

	session, err := st.Sessions().Get(ctx, nil, started.SessionID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	var history []Message
	if err := json.Unmarshal(session.Messages, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("failed turn must not persist the learner's message, history = %v", history)
	}

	rows, err := st.SkillRatings().ListByLanguage(ctx, nil, learner, "de")
	if err != nil {
		t.Fatalf("list skills: %v", err)
	}
	for _, row := range rows {
		if row.Rating != rating.DefaultRating || row.Attempts != 0 {
			t.Errorf("skill %s mutated on failed turn: %+v", row.SkillID, row)
		}
	}
}

func TestRespondRejectsConcurrentTurn(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	started, err := svc.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Simulate an in-flight turn holding the session lock.
	if !svc.locks.TryLock(started.SessionID) {
		t.Fatal("could not take session lock")
	}
	defer svc.locks.Unlock(started.SessionID)

	_, err = svc.Respond(ctx, learner, started.SessionID, "Hallo")
	if !errors.Is(err, ErrTurnInFlight) {
		t.Fatalf("err = %v, want ErrTurnInFlight", err)
	}
}

func TestRespondValidation(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	started, err := svc.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := svc.Respond(ctx, learner, started.SessionID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty message err = %v, want ErrEmptyMessage", err)
	}
	if _, err := svc.Respond(ctx, uuid.New(), started.SessionID, "Hallo"); !errors.Is(err, ErrNotOwner) {
		t.Errorf("foreign learner err = %v, want ErrNotOwner", err)
	}
	if _, err := svc.Respond(ctx, learner, uuid.New(), "Hallo"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown session err = %v, want ErrNotFound", err)
	}
}

func TestCompleteAdvancesModeUnlock(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	completeSessionInMode(t, svc, mock, st, learner, sc.ID, ModeControlled)
	progress, err := st.Scenarios().GetOrCreateProgress(ctx, nil, learner, sc.ID, ModeControlled.String())
	if err != nil {
		t.Fatalf("load progress: %v", err)
	}
	if !progress.ControlledCompleted || progress.ModeUnlocked != "guided" {
		t.Errorf("after controlled: %+v, want controlledCompleted + guided unlocked", progress)
	}

	completeSessionInMode(t, svc, mock, st, learner, sc.ID, ModeGuided)
	progress, _ = st.Scenarios().GetOrCreateProgress(ctx, nil, learner, sc.ID, ModeControlled.String())
	if !progress.GuidedCompleted || progress.ModeUnlocked != "open" {
		t.Errorf("after guided: %+v, want guidedCompleted + open unlocked", progress)
	}

	completeSessionInMode(t, svc, mock, st, learner, sc.ID, ModeOpen)
	progress, _ = st.Scenarios().GetOrCreateProgress(ctx, nil, learner, sc.ID, ModeControlled.String())
	if progress.ModeUnlocked != "open" {
		t.Errorf("open completion must not advance past open, got %q", progress.ModeUnlocked)
	}
	if !progress.ControlledCompleted || !progress.GuidedCompleted || !progress.OpenCompleted {
		t.Errorf("completion flags must never clear: %+v", progress)
	}
	if progress.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", progress.Attempts)
	}
}

func TestCompleteRecordsBestScore(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	// First session: one turn scoring 0.8.
	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	first, err := svc.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	mock.AddResponse(turnResponse(0.8))
	if _, err := svc.Respond(ctx, learner, first.SessionID, "Hallo"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	done, err := svc.Complete(ctx, learner, first.SessionID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.BestScore != 0.8 {
		t.Errorf("best score = %v, want 0.8", done.BestScore)
	}

	// Second session scores lower; best score must not drop.
	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	second, err := svc.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start second: %v", err)
	}
	mock.AddResponse(turnResponse(0.4))
	if _, err := svc.Respond(ctx, learner, second.SessionID, "Hallo"); err != nil {
		t.Fatalf("Respond second: %v", err)
	}
	done, err = svc.Complete(ctx, learner, second.SessionID)
	if err != nil {
		t.Fatalf("Complete second: %v", err)
	}
	if done.BestScore != 0.8 {
		t.Errorf("best score = %v, want 0.8 retained", done.BestScore)
	}
}

func TestCompleteOnlyOnce(t *testing.T) {
	svc, mock, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	started, err := svc.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Complete(ctx, learner, started.SessionID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if _, err := svc.Complete(ctx, learner, started.SessionID); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("second complete err = %v, want ErrSessionNotActive", err)
	}
	if _, err := svc.Respond(ctx, learner, started.SessionID, "Hallo"); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("respond on completed err = %v, want ErrSessionNotActive", err)
	}
}

// gatedProvider parks its single Generate call until released, so the
// test can commit work through another service instance in between.
type gatedProvider struct {
	inner    llm.Provider
	entered  chan struct{}
	released chan struct{}
}

func (p *gatedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	close(p.entered)
	<-p.released
	return p.inner.Generate(ctx, req)
}

func (p *gatedProvider) ModelID() string { return p.inner.ModelID() }

func TestRespondInterleavedInstancesKeepBothTurns(t *testing.T) {
	svcB, mockB, st := newTestService(t)
	ctx := context.Background()
	sc := seedScenario(t, st, "B1")
	learner := uuid.New()

	mockB.AddResponse(llm.MockResponse{Content: json.RawMessage("Guten Tag!")})
	started, err := svcB.Start(ctx, learner, sc.ID, ModeControlled)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// A second service instance over the same store, parked inside its
	// gateway call while the first instance commits a full turn.
	gate := &gatedProvider{
		inner:    llm.NewMockProvider(turnResponse(0.8)),
		entered:  make(chan struct{}),
		released: make(chan struct{}),
	}
	svcA := NewService(st, gate, DefaultConfig(), zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := svcA.Respond(ctx, learner, started.SessionID, "Ein Brot, bitte.")
		done <- err
	}()

	<-gate.entered
	mockB.AddResponse(turnResponse(0.6))
	if _, err := svcB.Respond(ctx, learner, started.SessionID, "Was kostet das?"); err != nil {
		t.Fatalf("Respond on first instance: %v", err)
	}
	close(gate.released)
	if err := <-done; err != nil {
		t.Fatalf("Respond on second instance: %v", err)
	}

	session, err := st.Sessions().Get(ctx, nil, started.SessionID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	var history []Message
	if err := json.Unmarshal(session.Messages, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5 (opening + two turns)", len(history))
	}
	var userMessages []string
	for _, m := range history {
		if m.Role == RoleUser {
			userMessages = append(userMessages, m.Content)
		}
	}
	if len(userMessages) != 2 || userMessages[0] != "Was kostet das?" || userMessages[1] != "Ein Brot, bitte." {
		t.Errorf("user messages = %v, want both turns in commit order", userMessages)
	}
	if session.CompositeCount != 2 {
		t.Errorf("CompositeCount = %d, want 2", session.CompositeCount)
	}
}

// completeSessionInMode starts and immediately completes a session,
// advancing the learner's mode unlock.
func completeSessionInMode(t *testing.T, svc *Service, mock *llm.MockProvider, st *store.Store, learner, scenarioID uuid.UUID, mode Mode) {
	t.Helper()
	ctx := context.Background()
	mock.AddResponse(llm.MockResponse{Content: json.RawMessage("Hallo!")})
	started, err := svc.Start(ctx, learner, scenarioID, mode)
	if err != nil {
		t.Fatalf("Start %s: %v", mode, err)
	}
	if _, err := svc.Complete(ctx, learner, started.SessionID); err != nil {
		t.Fatalf("Complete %s: %v", mode, err)
	}
}
