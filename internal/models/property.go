package models

import "time"

// Status is the coarse three-way sale status.
type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusSold      Status = "sold"
)

// Kind separates built homes from bare homesites.
type Kind string

const (
	KindHome     Kind = "home"
	KindHomesite Kind = "homesite"
)

const (
	PriceUponRequest = "Price Upon Request"
	AreaNotAvailable = "N/A"
)

// Property is the canonical listing entity.
type Property struct {
	ID              string                 `json:"id"`
	DisplayName     string                 `json:"name"`
	Price           string                 `json:"price"`
	PriceAmount     *float64               `json:"price_amount,omitempty"`
	Bedrooms        int                    `json:"bedrooms"`
	FullBaths       int                    `json:"full_baths"`
	HalfBaths       int                    `json:"half_baths"`
	Area            string                 `json:"sqft"`
	Images          []string               `json:"images"`
	Status          Status                 `json:"status"`
	StatusRaw       string                 `json:"status_raw,omitempty"`
	Kind            Kind                   `json:"kind"`
	Address         string                 `json:"address,omitempty"`
	Description     string                 `json:"description,omitempty"`
	LotNumber       string                 `json:"lot,omitempty"`
	Neighborhood    string                 `json:"neighborhood,omitempty"`
	BuilderName     string                 `json:"builder_marketing_name,omitempty"`
	CompletionEpoch *int64                 `json:"complete_date,omitempty"`
	Features        []string               `json:"features"`
	Extra           map[string]interface{} `json:"extra,omitempty"`
}

// CompletionYear returns the UTC year of CompletionEpoch, or 0 when unknown.
func (p Property) CompletionYear() int {
	if p.CompletionEpoch == nil {
		return 0
	}
	return time.Unix(*p.CompletionEpoch, 0).UTC().Year()
}
