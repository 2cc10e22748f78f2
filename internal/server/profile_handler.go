package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/lingualoop/lingualoop/internal/rating"
	"github.com/lingualoop/lingualoop/internal/store"
)

// ProfileHandler reads learner-language profiles.
type ProfileHandler struct {
	st *store.Store
}

// NewProfileHandler wires the handler.
func NewProfileHandler(st *store.Store) *ProfileHandler {
	return &ProfileHandler{st: st}
}

type skillRatingView struct {
	SkillID  string `json:"skillId"`
	Rating   int    `json:"rating"`
	RD       int    `json:"rd"`
	Attempts int    `json:"attempts"`
}

type profileView struct {
	LanguageID    string            `json:"languageId"`
	OverallRating int               `json:"overallRating"`
	OverallRD     int               `json:"overallRd"`
	OverallCefr   string            `json:"overallCefr"`
	TotalAttempts int               `json:"totalAttempts"`
	StreakCount   int               `json:"streakCount"`
	LastActiveAt  *time.Time        `json:"lastActiveAt,omitempty"`
	Skills        []skillRatingView `json:"skills"`
}

// Get handles GET /api/languages/:language/profile. An untouched
// profile comes back with defaults rather than 404: every learner has
// an implicit starting state.
func (h *ProfileHandler) Get(c *gin.Context) {
	languageID := c.Param("language")
	if languageID == "" {
		respondError(c, http.StatusBadRequest, "validation_error", nil)
		return
	}
	ctx := c.Request.Context()
	learnerID := learnerFrom(c)

	bands, err := h.st.Bands().ForLanguage(ctx, languageID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	profile, err := h.st.Profiles().Find(ctx, nil, learnerID, languageID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if profile == nil {
		// Reads must not insert: an untouched learner gets the implicit
		// starting state without a row being written.
		profile = &store.LanguageProfile{
			OverallRating: rating.DefaultRating,
			OverallRD:     rating.DefaultRD,
			OverallCEFR:   rating.MapToCEFR(rating.DefaultRating, bands),
		}
	}
	skills, err := h.st.SkillRatings().ListByLanguage(ctx, nil, learnerID, languageID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "internal_error", err)
		return
	}

	respondOK(c, profileView{
		LanguageID:    languageID,
		OverallRating: profile.OverallRating,
		OverallRD:     profile.OverallRD,
		OverallCefr:   profile.OverallCEFR,
		TotalAttempts: profile.TotalAttempts,
		StreakCount:   profile.StreakCount,
		LastActiveAt:  profile.LastActiveAt,
		Skills: lo.Map(skills, func(s store.SkillRating, _ int) skillRatingView {
			return skillRatingView{SkillID: s.SkillID, Rating: s.Rating, RD: s.RD, Attempts: s.Attempts}
		}),
	})
}
