package mapstyle

import (
	"github.com/paulmach/orb/geojson"

	"kiosk/server/internal/models"
)

// ColorToken is a fill color understood by the map renderer.
type ColorToken string

const (
	NeutralGray ColorToken = "#cfcfcf"
	Amber       ColorToken = "#f59e0b"
	Blue        ColorToken = "#2563eb"
	Green       ColorToken = "#10b981"
)

// StatusProperty is the feature property the style expressions read.
const StatusProperty = "status_raw"

type rule struct {
	statuses []string
	color    ColorToken
	opacity  float64
}

// Evaluated in order against the raw, case-sensitive status.
var rules = []rule{
	{statuses: []string{"Closed", "Developer"}, color: NeutralGray, opacity: 0.1},
	{statuses: []string{"Contract"}, color: Amber, opacity: 0.1},
	{statuses: []string{"Available Home"}, color: Blue, opacity: 0.7},
	{statuses: []string{"Available Lot"}, color: Green, opacity: 0.7},
}

var fallback = rule{color: NeutralGray, opacity: 0.7}

func lookup(statusRaw string) rule {
	for _, r := range rules {
		for _, s := range r.statuses {
			if s == statusRaw {
				return r
			}
		}
	}
	return fallback
}

// FillColor returns the lot fill color for a raw status.
func FillColor(statusRaw string) ColorToken {
	return lookup(statusRaw).color
}

// FillOpacity returns the lot fill opacity for a raw status.
func FillOpacity(statusRaw string) float64 {
	return lookup(statusRaw).opacity
}

// Decorate writes the fill paint of a lot onto its feature properties.
func Decorate(lot models.LotFeature, props geojson.Properties) {
	r := lookup(lot.StatusRaw)
	props["fill_color"] = string(r.color)
	props["fill_opacity"] = r.opacity
}

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Status models.Status `json:"status"`
	Label  string        `json:"label"`
	Color  ColorToken    `json:"color"`
}

// Legend lists the canonical statuses with their swatch colors.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Status: models.StatusAvailable, Label: "Available", Color: Green},
		{Status: models.StatusPending, Label: "Pending", Color: Amber},
		{Status: models.StatusSold, Label: "Sold", Color: NeutralGray},
	}
}

// FillColorExpression renders the color rules as a map style "match" expression.
func FillColorExpression() []interface{} {
	expr := []interface{}{"match", []interface{}{"get", StatusProperty}}
	for _, r := range rules {
		expr = append(expr, labels(r.statuses), string(r.color))
	}
	return append(expr, string(fallback.color))
}

// FillOpacityExpression renders the opacity rules as a "match" expression.
func FillOpacityExpression() []interface{} {
	expr := []interface{}{"match", []interface{}{"get", StatusProperty}}
	for _, r := range rules {
		expr = append(expr, labels(r.statuses), r.opacity)
	}
	return append(expr, fallback.opacity)
}

func labels(statuses []string) interface{} {
	if len(statuses) == 1 {
		return statuses[0]
	}
	out := make([]interface{}, len(statuses))
	for i, s := range statuses {
		out[i] = s
	}
	return out
}

// Paint is a flat map of layer paint properties.
type Paint map[string]interface{}

// Style bundles everything the front end needs to draw the lot layers.
type Style struct {
	Fill    Paint         `json:"fill"`
	Outline Paint         `json:"outline"`
	Label   Paint         `json:"label"`
	Legend  []LegendEntry `json:"legend"`
}

// Layers returns the fill, outline and label paints for the lot layers.
func Layers() Style {
	return Style{
		Fill: Paint{
			"fill-color":   FillColorExpression(),
			"fill-opacity": FillOpacityExpression(),
		},
		Outline: Paint{
			"line-color":   "#ffffff",
			"line-width":   2,
			"line-opacity": 0.8,
		},
		Label: Paint{
			"text-field":      []interface{}{"get", "name"},
			"text-size":       14,
			"text-color":      "#ffffff",
			"text-halo-color": "#000000",
			"text-halo-width": 2,
		},
		Legend: Legend(),
	}
}
