package ingest

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Field alias tables, ported from the upload mapping tables the frontends
// were built against. Order is priority order and is the same for every
// payload format. Matching is tolerant of case and punctuation, so
// "Tower Name", "towerName" and "tower_name" all resolve to the same alias.
var (
	aliasesExternalKey   = []string{"componentId", "component_id", "external_key", "slug", "identifier", "key", "id"}
	aliasesName          = []string{"name", "component_name", "componentName", "Component Name", "title"}
	aliasesTower         = []string{"tower", "tower_name", "towerName", "Tower", "domain", "area"}
	aliasesAppGroup      = []string{"owner", "app_group", "appGroup", "team", "ownership", "group"}
	aliasesComponentType = []string{"type", "component_type", "componentType", "category", "kind"}
	aliasesStatus        = []string{"status", "state", "phase", "stage"}
	aliasesComplexity    = []string{"complexity", "level", "difficulty", "size"}
	aliasesChangeType    = []string{"change_type", "changeType", "change", "action"}
	aliasesMonth         = []string{"month", "release_month", "releaseMonth"}
	aliasesYear          = []string{"year", "release_year", "releaseYear"}
	aliasesDescription   = []string{"description", "desc", "details", "summary"}
	aliasesReleaseDate   = []string{"releaseDate", "release_date", "date", "released_at"}
	aliasesTechStack     = []string{"tech_stack", "techStack", "technology", "technologies", "stack"}
)

// Extract returns the first non-empty value any of the aliases resolves to,
// or def. Values whose trimmed string form is empty or a textual
// not-a-number sentinel count as absent. Pure function of its inputs.
func Extract(rec RawRecord, aliases []string, def string) string {
	if len(rec) == 0 {
		return def
	}
	// Source keys are visited in sorted order so that two spellings folding
	// to the same key ("towerName" and "tower_name") resolve the same way on
	// every run; among colliding spellings the first non-empty value wins.
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	folded := make(map[string]any, len(rec))
	for _, k := range keys {
		fk := foldKey(k)
		prev, seen := folded[fk]
		if !seen || strings.TrimSpace(stringify(prev)) == "" {
			folded[fk] = rec[k]
		}
	}
	for _, alias := range aliases {
		v, ok := folded[foldKey(alias)]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(stringify(v))
		if s == "" || s == "nan" || s == "NaN" {
			continue
		}
		return s
	}
	return def
}

// foldKey lowercases and strips punctuation so key spelling variants across
// CSV, Excel and JSON sources collapse to one lookup key.
func foldKey(k string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(k)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		// JSON numbers decode as float64; render integral values without a
		// fractional part so "2024.0" style years survive extraction.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case map[string]any, []any:
		// Nested JSON (tech stack objects and the like) keeps its raw form.
		raw, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(raw)
	default:
		return ""
	}
}
