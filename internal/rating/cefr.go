package rating

// Band is one CEFR level expressed as an inclusive rating range.
type Band struct {
	Level string
	Min   int
	Max   int
}

// DefaultBands covers Pre-A1 through C2 with contiguous 200-point bands.
// Languages without configured bands fall back to these.
var DefaultBands = []Band{
	{Level: "Pre-A1", Min: 0, Max: 799},
	{Level: "A1", Min: 800, Max: 999},
	{Level: "A2", Min: 1000, Max: 1199},
	{Level: "B1", Min: 1200, Max: 1399},
	{Level: "B2", Min: 1400, Max: 1599},
	{Level: "C1", Min: 1600, Max: 1799},
	{Level: "C2", Min: 1800, Max: 3000},
}

// MapToCEFR returns the level of the first band containing the rating.
// Outside all bands it returns the lowest level when the rating is below
// every band, otherwise the highest. Bands must be ordered by Min.
func MapToCEFR(ratingValue int, bands []Band) string {
	if len(bands) == 0 {
		bands = DefaultBands
	}
	for _, b := range bands {
		if ratingValue >= b.Min && ratingValue <= b.Max {
			return b.Level
		}
	}
	if ratingValue < bands[0].Min {
		return bands[0].Level
	}
	return bands[len(bands)-1].Level
}

// BandAnchor returns the midpoint rating of the band for the given
// level, used as the fixed difficulty anchor for dialogue evaluation.
// Unknown levels anchor at DialogueSeedRating.
func BandAnchor(level string, bands []Band) int {
	if len(bands) == 0 {
		bands = DefaultBands
	}
	for _, b := range bands {
		if b.Level == level {
			return (b.Min + b.Max) / 2
		}
	}
	return DialogueSeedRating
}
