package ingest

import (
	"strings"
	"time"

	types "github.com/comptrack/comptrack-backend/internal/domain"
)

// The historical trackers shipped two status vocabularies: a five-value one
// (Planning / In Development / In Progress / Testing / Completed / Deployed)
// and a lowercase one (planning / development / testing / deployed /
// deprecated). Both collapse into the canonical triple here; the mapping is
// exhaustive so stored data from either lineage round-trips.
var statusSynonyms = map[string]string{
	"planned":     types.StatusPlanned,
	"planning":    types.StatusPlanned,
	"plan":        types.StatusPlanned,
	"backlog":     types.StatusPlanned,
	"proposed":    types.StatusPlanned,
	"not started": types.StatusPlanned,

	"in development": types.StatusInDevelopment,
	"in-development": types.StatusInDevelopment,
	"indevelopment":  types.StatusInDevelopment,
	"development":    types.StatusInDevelopment,
	"dev":            types.StatusInDevelopment,
	"in progress":    types.StatusInDevelopment,
	"in-progress":    types.StatusInDevelopment,
	"inprogress":     types.StatusInDevelopment,
	"progress":       types.StatusInDevelopment,
	"testing":        types.StatusInDevelopment,
	"test":           types.StatusInDevelopment,
	"qa":             types.StatusInDevelopment,
	"building":       types.StatusInDevelopment,

	"released":   types.StatusReleased,
	"release":    types.StatusReleased,
	"completed":  types.StatusReleased,
	"complete":   types.StatusReleased,
	"done":       types.StatusReleased,
	"finished":   types.StatusReleased,
	"deployed":   types.StatusReleased,
	"deploy":     types.StatusReleased,
	"production": types.StatusReleased,
	"prod":       types.StatusReleased,
	"live":       types.StatusReleased,
	"shipped":    types.StatusReleased,
	"deprecated": types.StatusReleased,
}

// Complexity folds the legacy Simple/Medium/Complex triple and the numeric
// 1/2/3 shorthand into Low/Medium/High.
var complexitySynonyms = map[string]string{
	"low":     types.ComplexityLow,
	"simple":  types.ComplexityLow,
	"easy":    types.ComplexityLow,
	"small":   types.ComplexityLow,
	"minimal": types.ComplexityLow,
	"1":       types.ComplexityLow,

	"medium":   types.ComplexityMedium,
	"moderate": types.ComplexityMedium,
	"med":      types.ComplexityMedium,
	"average":  types.ComplexityMedium,
	"2":        types.ComplexityMedium,

	"high":      types.ComplexityHigh,
	"complex":   types.ComplexityHigh,
	"hard":      types.ComplexityHigh,
	"difficult": types.ComplexityHigh,
	"large":     types.ComplexityHigh,
	"3":         types.ComplexityHigh,
}

// substring fallbacks, checked in order after exact lookup misses
var statusSubstrings = []struct {
	needle string
	value  string
}{
	{"plan", types.StatusPlanned},
	{"develop", types.StatusInDevelopment},
	{"progress", types.StatusInDevelopment},
	{"test", types.StatusInDevelopment},
	{"complet", types.StatusReleased},
	{"deploy", types.StatusReleased},
	{"releas", types.StatusReleased},
}

var complexitySubstrings = []struct {
	needle string
	value  string
}{
	{"simpl", types.ComplexityLow},
	{"low", types.ComplexityLow},
	{"med", types.ComplexityMedium},
	{"high", types.ComplexityHigh},
	{"complex", types.ComplexityHigh},
}

// NormalizeStatus maps a free-text status onto the canonical set. The
// second return reports whether the input was recognized; unrecognized
// input degrades to the default rather than failing.
func NormalizeStatus(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return types.StatusPlanned, false
	}
	if v, ok := statusSynonyms[key]; ok {
		return v, true
	}
	for _, s := range statusSubstrings {
		if strings.Contains(key, s.needle) {
			return s.value, true
		}
	}
	return types.StatusPlanned, false
}

// NormalizeComplexity maps a free-text complexity onto the canonical set,
// with the same recognized/default contract as NormalizeStatus.
func NormalizeComplexity(raw string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return types.ComplexityMedium, false
	}
	if v, ok := complexitySynonyms[key]; ok {
		return v, true
	}
	for _, s := range complexitySubstrings {
		if strings.Contains(key, s.needle) {
			return s.value, true
		}
	}
	return types.ComplexityMedium, false
}

// DateFormats are tried in declared order by NormalizeDate.
var DateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
}

// NormalizeDate returns the first successful parse, or nil when every
// format fails. The caller decides what absence falls back to.
func NormalizeDate(raw string, formats []string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
