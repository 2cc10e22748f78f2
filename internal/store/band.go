package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/lingualoop/lingualoop/internal/rating"
)

// BandRepo reads configured CEFR bands.
type BandRepo struct {
	db *gorm.DB
}

// ForLanguage returns the bands configured for a language, falling back
// to the seeded defaults (empty language id) and finally to the
// built-in defaults.
func (r *BandRepo) ForLanguage(ctx context.Context, languageID string) ([]rating.Band, error) {
	bands, err := r.load(ctx, languageID)
	if err != nil {
		return nil, err
	}
	if len(bands) == 0 && languageID != "" {
		bands, err = r.load(ctx, "")
		if err != nil {
			return nil, err
		}
	}
	if len(bands) == 0 {
		return rating.DefaultBands, nil
	}
	return bands, nil
}

func (r *BandRepo) load(ctx context.Context, languageID string) ([]rating.Band, error) {
	var rows []CefrBand
	err := r.db.WithContext(ctx).
		Where("language_id = ?", languageID).
		Order("min ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]rating.Band, len(rows))
	for i, b := range rows {
		out[i] = rating.Band{Level: b.Level, Min: b.Min, Max: b.Max}
	}
	return out, nil
}

func defaultBandRows() []CefrBand {
	rows := make([]CefrBand, len(rating.DefaultBands))
	for i, b := range rating.DefaultBands {
		rows[i] = CefrBand{LanguageID: "", Level: b.Level, Min: b.Min, Max: b.Max}
	}
	return rows
}
