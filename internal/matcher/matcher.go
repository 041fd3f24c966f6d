package matcher

import "kiosk/server/internal/models"

// Match returns the first property sharing the lot's id. A miss is not an
// error; it means there is no detail to show for that lot.
func Match(lot models.LotFeature, properties []models.Property) (models.Property, bool) {
	for _, p := range properties {
		if p.ID == lot.ID {
			return p, true
		}
	}
	return models.Property{}, false
}

// Index is an id-keyed view over one feed's properties. It resolves exactly
// like Match, including first-wins on duplicate ids.
type Index struct {
	properties []models.Property
	byID       map[string]int
}

func NewIndex(properties []models.Property) *Index {
	ix := &Index{
		properties: properties,
		byID:       make(map[string]int, len(properties)),
	}
	for i, p := range properties {
		if _, dup := ix.byID[p.ID]; !dup {
			ix.byID[p.ID] = i
		}
	}
	return ix
}

// Get looks a property up by id.
func (ix *Index) Get(id string) (models.Property, bool) {
	if ix == nil {
		return models.Property{}, false
	}
	i, ok := ix.byID[id]
	if !ok {
		return models.Property{}, false
	}
	return ix.properties[i], true
}

// Match resolves a lot to its property.
func (ix *Index) Match(lot models.LotFeature) (models.Property, bool) {
	return ix.Get(lot.ID)
}

// Len returns the number of indexed properties, duplicates included.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.properties)
}
