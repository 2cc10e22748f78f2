// Package dialogue runs multi-turn conversation practice: it starts
// sessions against a scenario, sends each learner turn to the
// evaluation gateway, converts the returned scores into per-skill
// rating deltas scaled by the session mode, and manages forward-only
// mode unlocks across sessions.
package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lingualoop/lingualoop/internal/llm"
	"github.com/lingualoop/lingualoop/internal/rating"
	"github.com/lingualoop/lingualoop/internal/store"
)

// Config tunes the gateway calls and persistence retries.
type Config struct {
	MaxTokens   int
	Temperature float64
	// TxRetries bounds transparent retries on version conflicts.
	TxRetries int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   1024,
		Temperature: 0.7,
		TxRetries:   3,
	}
}

// Service is the dialogue session machine.
type Service struct {
	st       *store.Store
	provider llm.Provider
	cfg      Config
	log      *zap.Logger
	locks    sessionLocks
}

// NewService wires the session machine.
func NewService(st *store.Store, provider llm.Provider, cfg Config, log *zap.Logger) *Service {
	if cfg.TxRetries <= 0 {
		cfg.TxRetries = 3
	}
	return &Service{st: st, provider: provider, cfg: cfg, log: log}
}

// Start begins a new session for a scenario in the given mode. The mode
// must already be unlocked for this learner and scenario. The opening
// tutor message comes from the gateway; nothing is persisted if that
// call fails.
func (s *Service) Start(ctx context.Context, learnerID, scenarioID uuid.UUID, mode Mode) (*StartResult, error) {
	scenario, err := s.st.Scenarios().Get(ctx, nil, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}

	progress, err := s.st.Scenarios().GetOrCreateProgress(ctx, nil, learnerID, scenarioID, ModeControlled.String())
	if err != nil {
		return nil, fmt.Errorf("load scenario progress: %w", err)
	}
	unlocked, err := ParseMode(progress.ModeUnlocked)
	if err != nil {
		unlocked = ModeControlled
	}
	if !mode.UnlockedBy(unlocked) {
		return nil, ErrLockedMode
	}

	bands, err := s.st.Bands().ForLanguage(ctx, scenario.LanguageID)
	if err != nil {
		return nil, fmt.Errorf("load cefr bands: %w", err)
	}

	seed, err := s.coreSkillAverage(ctx, learnerID, scenario.LanguageID)
	if err != nil {
		return nil, err
	}
	userCEFR := rating.MapToCEFR(seed, bands)

	system, err := buildSystemPrompt(scenario, mode, userCEFR)
	if err != nil {
		return nil, fmt.Errorf("build system prompt: %w", err)
	}

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, "dialogue-open"), llm.Request{
		System:      system,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: openingInstruction}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("opening message: %w", err)
	}
	opening := strings.TrimSpace(string(resp.Content))

	messages, err := json.Marshal([]Message{{Role: RoleAssistant, Content: opening}})
	if err != nil {
		return nil, fmt.Errorf("encode history: %w", err)
	}

	session := &store.DialogueSession{
		LearnerID:  learnerID,
		ScenarioID: scenarioID,
		LanguageID: scenario.LanguageID,
		Mode:       mode.String(),
		State:      store.SessionStateActive,
		Messages:   datatypes.JSON(messages),
	}
	if err := s.st.Sessions().Create(ctx, nil, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	result := &StartResult{
		SessionID: session.ID,
		Mode:      mode,
		AIMessage: opening,
		UserCEFR:  userCEFR,
	}
	switch mode {
	case ModeControlled:
		result.Options = decodeStrings(scenario.OpeningOptions)
	case ModeGuided:
		result.Hints = decodeStrings(scenario.Hints)
	}

	s.log.Info("dialogue session started",
		zap.String("session_id", session.ID.String()),
		zap.String("scenario_id", scenarioID.String()),
		zap.String("mode", mode.String()),
		zap.String("user_cefr", userCEFR))

	return result, nil
}

// Respond processes one learner turn: the full conversation goes to the
// gateway, the returned evaluation becomes per-skill rating deltas, and
// everything lands in one transaction. A gateway failure leaves the
// session untouched; the learner's message is only persisted together
// with the tutor's reply.
func (s *Service) Respond(ctx context.Context, learnerID, sessionID uuid.UUID, message string) (*RespondResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	if !s.locks.TryLock(sessionID) {
		return nil, ErrTurnInFlight
	}
	defer s.locks.Unlock(sessionID)

	session, err := s.st.Sessions().Get(ctx, nil, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.LearnerID != learnerID {
		return nil, ErrNotOwner
	}
	if session.State != store.SessionStateActive {
		return nil, ErrSessionNotActive
	}
	mode, err := ParseMode(session.Mode)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	scenario, err := s.st.Scenarios().Get(ctx, nil, session.ScenarioID)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	bands, err := s.st.Bands().ForLanguage(ctx, scenario.LanguageID)
	if err != nil {
		return nil, fmt.Errorf("load cefr bands: %w", err)
	}

	var history []Message
	if len(session.Messages) > 0 {
		if err := json.Unmarshal(session.Messages, &history); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}

	seed, err := s.coreSkillAverage(ctx, learnerID, scenario.LanguageID)
	if err != nil {
		return nil, err
	}
	system, err := buildSystemPrompt(scenario, mode, rating.MapToCEFR(seed, bands))
	if err != nil {
		return nil, fmt.Errorf("build system prompt: %w", err)
	}

	llmMessages := lo.Map(history, func(m Message, _ int) llm.Message {
		role := llm.RoleUser
		if m.Role == RoleAssistant {
			role = llm.RoleAssistant
		}
		return llm.Message{Role: role, Content: m.Content}
	})
	llmMessages = append(llmMessages, llm.Message{Role: llm.RoleUser, Content: message})

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, "dialogue-turn"), llm.Request{
		System:      system,
		Messages:    llmMessages,
		Schema:      TurnSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("evaluate turn: %w", err)
	}

	reply, eval, err := parseTurn(resp.Content)
	if err != nil {
		return nil, err
	}

	anchor := rating.BandAnchor(scenario.TargetCEFR, bands)
	multiplier := mode.Multiplier()

	deltas := make(map[string]int, len(CoreSkills))
	var userCEFR string

	err = s.inTx(ctx, func(tx *gorm.DB) error {
		fresh, err := s.st.Sessions().Get(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if fresh.State != store.SessionStateActive {
			return ErrSessionNotActive
		}

		for _, skill := range CoreSkills {
			actual, ok := skillActual(skill, eval.Scores)
			if !ok {
				continue
			}
			row, err := s.st.SkillRatings().GetOrCreate(ctx, tx, learnerID, scenario.LanguageID, skill)
			if err != nil {
				return err
			}
			expected := rating.ExpectedScore(row.Rating, anchor)
			k := rating.KFactor(row.RD, row.Attempts, row.Rating)
			updated := rating.ScaledUpdate(row.Rating, k, multiplier, actual, expected)
			deltas[skill] = updated - row.Rating
			row.Rating = updated
			row.RD = rating.DecayRD(row.RD)
			row.Attempts++
			if err := s.st.SkillRatings().UpdateGuarded(ctx, tx, row); err != nil {
				return err
			}
		}

		overallCEFR, err := s.recomputeProfile(ctx, tx, learnerID, scenario.LanguageID, bands)
		if err != nil {
			return err
		}
		userCEFR = overallCEFR

		// Rebuild the history from the row read inside this tx, not the
		// copy taken before the gateway call: another instance may have
		// committed a turn in between, and its messages must survive.
		var freshHistory []Message
		if len(fresh.Messages) > 0 {
			if err := json.Unmarshal(fresh.Messages, &freshHistory); err != nil {
				return fmt.Errorf("decode history: %w", err)
			}
		}
		newHistory := append(freshHistory,
			Message{Role: RoleUser, Content: message},
			Message{Role: RoleAssistant, Content: reply},
		)
		encodedHistory, err := json.Marshal(newHistory)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
		encodedEval, err := json.Marshal(eval)
		if err != nil {
			return fmt.Errorf("encode evaluation: %w", err)
		}
		encodedDeltas, err := json.Marshal(deltas)
		if err != nil {
			return fmt.Errorf("encode deltas: %w", err)
		}

		fresh.Messages = datatypes.JSON(encodedHistory)
		fresh.LastEvaluation = datatypes.JSON(encodedEval)
		fresh.SkillDeltas = datatypes.JSON(encodedDeltas)
		fresh.CompositeSum += eval.CompositeScore
		fresh.CompositeCount++
		return s.st.Sessions().UpdateGuarded(ctx, tx, fresh)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("dialogue turn evaluated",
		zap.String("session_id", sessionID.String()),
		zap.Float64("composite", eval.CompositeScore),
		zap.Any("deltas", deltas))

	return &RespondResult{
		AIReply:      reply,
		Evaluation:   eval,
		RatingDeltas: deltas,
		UserCEFR:     userCEFR,
	}, nil
}

// Complete marks an active session completed and advances scenario
// progress: attempt count, best score, the mode's completion flag, and
// the forward-only mode unlock.
func (s *Service) Complete(ctx context.Context, learnerID, sessionID uuid.UUID) (*CompleteResult, error) {
	if !s.locks.TryLock(sessionID) {
		return nil, ErrTurnInFlight
	}
	defer s.locks.Unlock(sessionID)

	var result CompleteResult
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		session, err := s.st.Sessions().Get(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.LearnerID != learnerID {
			return ErrNotOwner
		}
		if session.State != store.SessionStateActive {
			return ErrSessionNotActive
		}
		mode, err := ParseMode(session.Mode)
		if err != nil {
			return fmt.Errorf("session %s: %w", sessionID, err)
		}

		sessionScore := 0.0
		if session.CompositeCount > 0 {
			sessionScore = session.CompositeSum / float64(session.CompositeCount)
		}

		progress, err := s.st.Scenarios().GetOrCreateProgress(ctx, tx, learnerID, session.ScenarioID, ModeControlled.String())
		if err != nil {
			return err
		}
		progress.Attempts++
		if sessionScore > progress.BestScore {
			progress.BestScore = sessionScore
		}
		switch mode {
		case ModeControlled:
			progress.ControlledCompleted = true
		case ModeGuided:
			progress.GuidedCompleted = true
		case ModeOpen:
			progress.OpenCompleted = true
		}
		unlocked, err := ParseMode(progress.ModeUnlocked)
		if err != nil {
			unlocked = ModeControlled
		}
		unlocked = MaxMode(unlocked, mode.Next())
		progress.ModeUnlocked = unlocked.String()
		if err := s.st.Scenarios().UpdateProgressGuarded(ctx, tx, progress); err != nil {
			return err
		}

		now := time.Now().UTC()
		session.State = store.SessionStateCompleted
		session.CompletedAt = &now
		if err := s.st.Sessions().UpdateGuarded(ctx, tx, session); err != nil {
			return err
		}

		result = CompleteResult{BestScore: progress.BestScore, ModeUnlocked: unlocked}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("dialogue session completed",
		zap.String("session_id", sessionID.String()),
		zap.Float64("best_score", result.BestScore),
		zap.String("mode_unlocked", result.ModeUnlocked.String()))

	return &result, nil
}

// coreSkillAverage averages the learner's existing core skill ratings
// for a language, seeding the dialogue default when none exist.
func (s *Service) coreSkillAverage(ctx context.Context, learnerID uuid.UUID, languageID string) (int, error) {
	rows, err := s.st.SkillRatings().ListByLanguage(ctx, nil, learnerID, languageID)
	if err != nil {
		return 0, fmt.Errorf("list skill ratings: %w", err)
	}
	core := lo.Filter(rows, func(r store.SkillRating, _ int) bool {
		return lo.Contains(CoreSkills, r.SkillID)
	})
	if len(core) == 0 {
		return rating.DialogueSeedRating, nil
	}
	sum := lo.SumBy(core, func(r store.SkillRating) int { return r.Rating })
	return sum / len(core), nil
}

// recomputeProfile rebuilds the learner-language aggregate from all
// skill rows and rolls the streak forward, inside the caller's tx.
func (s *Service) recomputeProfile(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, languageID string, bands []rating.Band) (string, error) {
	rows, err := s.st.SkillRatings().ListByLanguage(ctx, tx, learnerID, languageID)
	if err != nil {
		return "", err
	}
	snapshots := lo.Map(rows, func(r store.SkillRating, _ int) rating.SkillSnapshot {
		return rating.SkillSnapshot{SkillID: r.SkillID, Rating: r.Rating, RD: r.RD, Attempts: r.Attempts}
	})
	overall := rating.Aggregate(snapshots, bands)

	profile, err := s.st.Profiles().GetOrCreate(ctx, tx, learnerID, languageID, bands)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	profile.OverallRating = overall.Rating
	profile.OverallRD = overall.RD
	profile.OverallCEFR = overall.CEFR
	profile.TotalAttempts = overall.TotalAttempts
	profile.StreakCount = rating.NextStreak(profile.StreakCount, profile.LastActiveAt, now)
	profile.LastActiveAt = &now
	if err := s.st.Profiles().UpdateGuarded(ctx, tx, profile); err != nil {
		return "", err
	}
	return overall.CEFR, nil
}

// inTx runs fn in a transaction, transparently retrying version
// conflicts a bounded number of times. fn re-reads all guarded rows so
// a retry starts from fresh state.
func (s *Service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	var err error
	for range s.cfg.TxRetries {
		err = s.st.WithinTx(ctx, fn)
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
	}
	return err
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
