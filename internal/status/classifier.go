package status

import (
	"strings"

	"kiosk/server/internal/models"
)

type rule struct {
	status   models.Status
	keywords []string
}

// Order matters: the first rule with a matching keyword wins.
var rules = []rule{
	{models.StatusAvailable, []string{"available", "active", "developer"}},
	{models.StatusPending, []string{"pending", "contract"}},
	{models.StatusSold, []string{"sold", "closed"}},
}

// Classify maps a raw feed status onto the canonical vocabulary. Empty or
// unrecognized values are reported as available.
func Classify(raw string) models.Status {
	s, _ := Lookup(raw)
	return s
}

// Lookup is Classify plus whether a rule actually matched. Callers use the
// flag to notice statuses that only fell back to the default.
func Lookup(raw string) (models.Status, bool) {
	lower := strings.ToLower(raw)
	if lower == "" {
		return models.StatusAvailable, false
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.status, true
			}
		}
	}
	return models.StatusAvailable, false
}
