package models

import "github.com/paulmach/orb"

// LotFeature is one closed lot polygon ready for the map.
type LotFeature struct {
	ID         string                 `json:"id"`
	Label      string                 `json:"label"`
	StatusRaw  string                 `json:"status_raw"`
	StatusText string                 `json:"status_text"`
	Status     Status                 `json:"status"`
	Price      interface{}            `json:"price,omitempty"`
	Size       interface{}            `json:"size,omitempty"`
	Ring       orb.Ring               `json:"ring"`
	Center     orb.Point              `json:"center"`
	Geohash    string                 `json:"geohash"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}
