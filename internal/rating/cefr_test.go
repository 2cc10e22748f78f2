package rating

import "testing"

func TestMapToCEFRInsideBands(t *testing.T) {
	tests := []struct {
		rating int
		want   string
	}{
		{0, "Pre-A1"},
		{799, "Pre-A1"},
		{800, "A1"},
		{1000, "A2"},
		{1199, "A2"},
		{1200, "B1"},
		{1450, "B2"},
		{1600, "C1"},
		{1800, "C2"},
		{3000, "C2"},
	}

	for _, tt := range tests {
		if got := MapToCEFR(tt.rating, DefaultBands); got != tt.want {
			t.Errorf("MapToCEFR(%d) = %s, want %s", tt.rating, got, tt.want)
		}
	}
}

func TestMapToCEFROutsideBands(t *testing.T) {
	bands := []Band{
		{Level: "A1", Min: 800, Max: 999},
		{Level: "A2", Min: 1000, Max: 1199},
	}

	if got := MapToCEFR(100, bands); got != "A1" {
		t.Errorf("below all bands = %s, want A1", got)
	}
	if got := MapToCEFR(5000, bands); got != "A2" {
		t.Errorf("above all bands = %s, want A2", got)
	}
}

func TestMapToCEFREmptyBandsFallsBack(t *testing.T) {
	if got := MapToCEFR(1250, nil); got != "B1" {
		t.Errorf("MapToCEFR with nil bands = %s, want B1", got)
	}
}

func TestBandAnchor(t *testing.T) {
	if got := BandAnchor("B1", DefaultBands); got != 1299 {
		t.Errorf("BandAnchor(B1) = %d, want 1299", got)
	}
	if got := BandAnchor("unknown", DefaultBands); got != DialogueSeedRating {
		t.Errorf("BandAnchor(unknown) = %d, want %d", got, DialogueSeedRating)
	}
}
