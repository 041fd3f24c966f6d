package geometry

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/sirupsen/logrus"

	"kiosk/server/internal/models"
	"kiosk/server/internal/status"
)

const geohashPrecision = 9

// Raw lot fields with a home on LotFeature; the rest go to Extra.
var knownLotFields = map[string]struct{}{
	"id":          {},
	"lotNumber":   {},
	"address":     {},
	"name":        {},
	"lotName":     {},
	"status":      {},
	"lot_status":  {},
	"price":       {},
	"size":        {},
	"area":        {},
	"coordinates": {},
}

// Builder turns raw map lot records into closed polygon features.
type Builder struct {
	logger *logrus.Logger
}

func NewBuilder(logger *logrus.Logger) *Builder {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Builder{logger: logger}
}

// Build converts raw lots in input order. Records without a usable first
// coordinate ring are skipped.
func (b *Builder) Build(records []models.RawRecord) []models.LotFeature {
	lots := make([]models.LotFeature, 0, len(records))
	for i, rec := range records {
		ring, ok := firstRing(rec)
		if !ok {
			b.logger.WithFields(logrus.Fields{
				"index": i,
				"id":    rec.Identity("id"),
			}).Debug("Skipping lot without a valid coordinate ring")
			continue
		}
		lots = append(lots, b.buildLot(i, rec, closeRing(ring)))
	}
	return lots
}

func (b *Builder) buildLot(i int, rec models.RawRecord, ring orb.Ring) models.LotFeature {
	statusRaw := rec.FirstStr("lot_status", "status")
	statusText := rec.Str("status")
	if statusText == "" {
		statusText = string(models.StatusAvailable)
	}

	center := ringCenter(ring)

	lot := models.LotFeature{
		ID:         lotID(i, rec),
		Label:      lotLabel(i, rec),
		StatusRaw:  statusRaw,
		StatusText: statusText,
		Status:     status.Classify(statusRaw),
		Price:      rec["price"],
		Size:       firstValue(rec, "size", "area"),
		Ring:       ring,
		Center:     center,
		Geohash:    geohash.EncodeWithPrecision(center.Lat(), center.Lon(), geohashPrecision),
	}
	for k, v := range rec {
		if _, known := knownLotFields[k]; known {
			continue
		}
		if lot.Extra == nil {
			lot.Extra = make(map[string]interface{})
		}
		lot.Extra[k] = v
	}
	return lot
}

func lotID(i int, rec models.RawRecord) string {
	if id := rec.Identity("id"); id != "" {
		return id
	}
	if n := rec.Identity("lotNumber"); n != "" {
		return n
	}
	return fmt.Sprintf("lot-%d", i)
}

func lotLabel(i int, rec models.RawRecord) string {
	if street := streetNumber(rec.Str("address")); street != "" {
		return street
	}
	if name := rec.FirstStr("name", "lotName"); name != "" {
		return name
	}
	if n := rec.Identity("lotNumber"); n != "" {
		return n
	}
	return strconv.Itoa(i + 1)
}

// streetNumber returns the first token of an address when it starts with a
// non-zero integer ("12", "12A"), else "".
func streetNumber(address string) string {
	fields := strings.Fields(address)
	if len(fields) == 0 {
		return ""
	}
	if n, ok := leadingInt(fields[0]); !ok || n == 0 {
		return ""
	}
	return fields[0]
}

func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstValue(rec models.RawRecord, keys ...string) interface{} {
	for _, k := range keys {
		switch v := rec[k].(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		case float64:
			if v == 0 {
				continue
			}
		}
		return rec[k]
	}
	return nil
}

// firstRing extracts coordinates[0] as a ring of [lng, lat] pairs.
func firstRing(rec models.RawRecord) (orb.Ring, bool) {
	rings, ok := rec["coordinates"].([]interface{})
	if !ok || len(rings) == 0 {
		return nil, false
	}
	points, ok := rings[0].([]interface{})
	if !ok || len(points) == 0 {
		return nil, false
	}

	ring := make(orb.Ring, 0, len(points)+1)
	for _, raw := range points {
		pair, ok := raw.([]interface{})
		if !ok || len(pair) < 2 {
			return nil, false
		}
		lng, okLng := pair[0].(float64)
		lat, okLat := pair[1].(float64)
		if !okLng || !okLat {
			return nil, false
		}
		ring = append(ring, orb.Point{lng, lat})
	}
	return ring, true
}

func closeRing(ring orb.Ring) orb.Ring {
	if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring
}

// ringCenter is the area centroid, or the vertex average for degenerate rings.
func ringCenter(ring orb.Ring) orb.Point {
	if len(ring) >= 4 {
		if c, area := planar.CentroidArea(orb.Polygon{ring}); area != 0 {
			return c
		}
	}
	var sumLng, sumLat float64
	for _, p := range ring {
		sumLng += p[0]
		sumLat += p[1]
	}
	n := float64(len(ring))
	return orb.Point{sumLng / n, sumLat / n}
}

// Decorator adds extra properties to a lot's GeoJSON feature.
type Decorator func(lot models.LotFeature, props geojson.Properties)

// FeatureCollection assembles the lots as GeoJSON polygons. Extension data is
// written first so the canonical properties always win.
func FeatureCollection(lots []models.LotFeature, decorators ...Decorator) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, lot := range lots {
		feature := geojson.NewFeature(orb.Polygon{lot.Ring})
		feature.ID = lot.ID

		props := geojson.Properties{}
		for k, v := range lot.Extra {
			props[k] = v
		}
		props["id"] = lot.ID
		props["name"] = lot.Label
		props["status"] = lot.StatusText
		props["status_raw"] = lot.StatusRaw
		props["canonical_status"] = string(lot.Status)
		props["center"] = []float64{lot.Center[0], lot.Center[1]}
		props["geohash"] = lot.Geohash
		if lot.Price != nil {
			props["price"] = lot.Price
		}
		if lot.Size != nil {
			props["size"] = lot.Size
		}
		for _, decorate := range decorators {
			decorate(lot, props)
		}

		feature.Properties = props
		fc.Append(feature)
	}
	return fc
}
