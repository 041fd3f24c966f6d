package models

// SiteInfo is the community metadata carried in the feed's "property" object.
type SiteInfo struct {
	Name string   `json:"name"`
	Logo string   `json:"logo"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
	Zoom *float64 `json:"zoom"`
}

// RawFeed is one full snapshot as returned by the feed endpoint.
type RawFeed struct {
	Property  SiteInfo               `json:"property"`
	Available []RawRecord            `json:"available"`
	MapLots   []RawRecord            `json:"mapLots"`
	Custom    map[string]interface{} `json:"custom,omitempty"`
}

// Personalize returns the value of custom.personalize.<flag> as a bool.
func (f *RawFeed) Personalize(flag string) bool {
	if f == nil || f.Custom == nil {
		return false
	}
	p, ok := f.Custom["personalize"].(map[string]interface{})
	if !ok {
		return false
	}
	v, _ := p[flag].(bool)
	return v
}
