package normalizer

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"kiosk/server/internal/models"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders a raw price. Strings pass through verbatim, even when
// empty; numbers become whole dollars with grouping, anything else is
// PriceUponRequest.
// The numeric amount is returned when one was present.
func FormatPrice(v interface{}) (string, *float64) {
	switch p := v.(type) {
	case string:
		return p, nil
	case float64:
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return models.PriceUponRequest, nil
		}
		amount := p
		return "$" + printer.Sprintf("%d", int64(math.Round(p))), &amount
	}
	return models.PriceUponRequest, nil
}

// FormatArea renders a raw square footage with the same pass-through rule.
func FormatArea(v interface{}) string {
	switch a := v.(type) {
	case string:
		return a
	case float64:
		if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
			return models.AreaNotAvailable
		}
		return printer.Sprintf("%d", int64(math.Round(a)))
	}
	return models.AreaNotAvailable
}
