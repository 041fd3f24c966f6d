package normalizer

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"kiosk/server/internal/models"
	"kiosk/server/internal/status"
)

// Raw listing fields with a canonical home on Property. Everything else is
// kept in Property.Extra.
var knownFields = map[string]struct{}{
	"id":                     {},
	"marketing_home_type":    {},
	"builder_marketing_name": {},
	"lot_type":               {},
	"price":                  {},
	"beds":                   {},
	"full_baths":             {},
	"half_baths":             {},
	"sqft":                   {},
	"lot_size":               {},
	"images":                 {},
	"lot_status":             {},
	"address":                {},
	"marketing_description":  {},
	"features":               {},
	"lot":                    {},
	"neighborhood":           {},
	"complete_date":          {},
	"start_date":             {},
}

// Normalizer turns raw listing records into canonical properties.
type Normalizer struct {
	logger *logrus.Logger
}

// NewNormalizer creates a normalizer. A nil logger gets a default JSON logger.
func NewNormalizer(logger *logrus.Logger) *Normalizer {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Normalizer{logger: logger}
}

// Normalize converts every record, keeping input order. It never drops a
// record and never fails on missing optional fields.
func (n *Normalizer) Normalize(records []models.RawRecord) []models.Property {
	properties := make([]models.Property, 0, len(records))
	for i, rec := range records {
		properties = append(properties, n.normalizeOne(i, rec))
	}
	return properties
}

func (n *Normalizer) normalizeOne(i int, rec models.RawRecord) models.Property {
	if rec == nil {
		rec = models.RawRecord{}
	}

	id := rec.Identity("id")
	if id == "" {
		id = strconv.Itoa(i + 1)
	}

	statusRaw := rec.Str("lot_status")
	st, matched := status.Lookup(statusRaw)
	if !matched && statusRaw != "" {
		n.logger.WithFields(logrus.Fields{
			"id":         id,
			"lot_status": statusRaw,
		}).Debug("Unrecognized lot status, treating as available")
	}

	price, amount := FormatPrice(rec["price"])

	p := models.Property{
		ID:           id,
		DisplayName:  displayName(rec),
		Price:        price,
		PriceAmount:  amount,
		Bedrooms:     count(rec, "beds"),
		FullBaths:    count(rec, "full_baths"),
		HalfBaths:    count(rec, "half_baths"),
		Area:         FormatArea(areaValue(rec)),
		Images:       images(rec, i),
		Status:       st,
		StatusRaw:    statusRaw,
		Kind:         models.KindHomesite,
		Address:      rec.Str("address"),
		Description:  rec.Str("marketing_description"),
		LotNumber:    rec.Str("lot"),
		Neighborhood: rec.Str("neighborhood"),
		BuilderName:  rec.Str("builder_marketing_name"),
		Features:     features(rec),
		Extra:        extra(rec),
	}
	if rec.Present("start_date") {
		p.Kind = models.KindHome
	}
	if epoch, ok := epochSeconds(rec, "complete_date"); ok {
		p.CompletionEpoch = &epoch
	}
	return p
}

func displayName(rec models.RawRecord) string {
	if name := rec.FirstStr("marketing_home_type", "builder_marketing_name"); name != "" {
		return name
	}
	return fmt.Sprintf("%s Lot", rec.Str("lot_type"))
}

// areaValue prefers sqft and falls back to lot_size when sqft is empty or zero.
func areaValue(rec models.RawRecord) interface{} {
	switch v := rec["sqft"].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		if v != 0 {
			return v
		}
	}
	return rec["lot_size"]
}

func count(rec models.RawRecord, key string) int {
	if v, ok := rec.Num(key); ok {
		if v < 0 {
			return 0
		}
		return int(v)
	}
	if s := strings.TrimSpace(rec.Str(key)); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

func images(rec models.RawRecord, i int) []string {
	var out []string
	if list, ok := rec["images"].([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return []string{fmt.Sprintf("/home-%d.jpg", i+1)}
	}
	return out
}

func features(rec models.RawRecord) []string {
	out := []string{}
	list, ok := rec["features"].([]interface{})
	if !ok {
		return out
	}
	seen := make(map[string]bool)
	for _, item := range list {
		s, ok := item.(string)
		if !ok || s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func epochSeconds(rec models.RawRecord, key string) (int64, bool) {
	if v, ok := rec.Num(key); ok && v > 0 {
		return int64(v), true
	}
	if s := rec.Str(key); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			return v, true
		}
	}
	return 0, false
}

func extra(rec models.RawRecord) map[string]interface{} {
	var out map[string]interface{}
	for k, v := range rec {
		if _, known := knownFields[k]; known {
			continue
		}
		if out == nil {
			out = make(map[string]interface{})
		}
		out[k] = v
	}
	return out
}
