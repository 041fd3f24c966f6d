package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kiosk/server/internal/models"
)

func sampleProperties() []models.Property {
	return []models.Property{
		{ID: "10", DisplayName: "First"},
		{ID: "12", DisplayName: "Plumeria"},
		{ID: "12", DisplayName: "Duplicate"},
		{ID: "lot-3", DisplayName: "Homesite"},
	}
}

func TestMatch(t *testing.T) {
	props := sampleProperties()

	tests := []struct {
		name     string
		lotID    string
		found    bool
		expected string
	}{
		{name: "Exact id", lotID: "12", found: true, expected: "Plumeria"},
		{name: "Generated id", lotID: "lot-3", found: true, expected: "Homesite"},
		{name: "Missing", lotID: "99", found: false},
		{name: "No fuzzy match", lotID: "012", found: false},
		{name: "Case sensitive", lotID: "LOT-3", found: false},
		{name: "Empty", lotID: "", found: false},
	}

	ix := NewIndex(props)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lot := models.LotFeature{ID: tt.lotID}

			p, ok := Match(lot, props)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, p.DisplayName)

			p, ok = ix.Match(lot)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, p.DisplayName)
		})
	}
}

func TestMatch_EmptyInputs(t *testing.T) {
	_, ok := Match(models.LotFeature{ID: "1"}, nil)
	assert.False(t, ok)

	var ix *Index
	_, ok = ix.Get("1")
	assert.False(t, ok)
	assert.Equal(t, 0, ix.Len())

	assert.Equal(t, 0, NewIndex(nil).Len())
}

func TestIndex_RoundTrip(t *testing.T) {
	props := sampleProperties()
	ix := NewIndex(props)
	assert.Equal(t, len(props), ix.Len())

	for _, p := range props {
		got, ok := ix.Get(p.ID)
		assert.True(t, ok)
		want, _ := Match(models.LotFeature{ID: p.ID}, props)
		assert.Equal(t, want, got)
	}
}
