package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Defaults substituted for missing required fields. Each substitution is
// reported as a warning, never as a failure.
const (
	DefaultTowerName     = "General"
	DefaultAppGroup      = "Default Team"
	DefaultComponentType = "Unspecified"
	DefaultChangeType    = "New"
	PlaceholderName      = "Unnamed Component"
)

// Years outside this window are treated as data entry noise and coerced to
// the current year.
const (
	MinYear = 2020
	MaxYear = 2030
)

// ValidateAndFix turns one raw row into a canonical Record plus the list of
// auto-corrections applied, in field order. It never fails: every input
// yields a usable record. It does not invent an ExternalKey; rows without
// a stable source identifier get one generated at reconciliation time.
func ValidateAndFix(raw RawRecord) (Record, []string) {
	var warnings []string
	now := time.Now()

	rec := Record{
		ExternalKey: Extract(raw, aliasesExternalKey, ""),
		ChangeType:  Extract(raw, aliasesChangeType, DefaultChangeType),
		Description: Extract(raw, aliasesDescription, ""),
		TechStack:   Extract(raw, aliasesTechStack, ""),
	}

	rec.Name = Extract(raw, aliasesName, "")
	if rec.Name == "" {
		rec.Name = PlaceholderName
		warnings = append(warnings, fmt.Sprintf("name missing, using placeholder %q", PlaceholderName))
	}

	rec.TowerName = Extract(raw, aliasesTower, "")
	if rec.TowerName == "" {
		rec.TowerName = DefaultTowerName
		warnings = append(warnings, fmt.Sprintf("tower missing, defaulting to %q", DefaultTowerName))
	}

	rec.AppGroup = Extract(raw, aliasesAppGroup, "")
	if rec.AppGroup == "" {
		rec.AppGroup = DefaultAppGroup
		warnings = append(warnings, fmt.Sprintf("owner missing, defaulting to %q", DefaultAppGroup))
	}

	rec.ComponentType = Extract(raw, aliasesComponentType, "")
	if rec.ComponentType == "" {
		rec.ComponentType = DefaultComponentType
	}

	rawStatus := Extract(raw, aliasesStatus, "")
	status, recognized := NormalizeStatus(rawStatus)
	rec.Status = status
	if rawStatus != "" && !recognized {
		warnings = append(warnings, fmt.Sprintf("status %q not recognized, defaulting to %q", rawStatus, status))
	}

	rawComplexity := Extract(raw, aliasesComplexity, "")
	complexity, recognized := NormalizeComplexity(rawComplexity)
	rec.Complexity = complexity
	if rawComplexity != "" && !recognized {
		warnings = append(warnings, fmt.Sprintf("complexity %q not recognized, defaulting to %q", rawComplexity, complexity))
	}

	rec.Month, warnings = fixBoundedInt(Extract(raw, aliasesMonth, ""), "month", 1, 12, int(now.Month()), warnings)
	rec.Year, warnings = fixBoundedInt(Extract(raw, aliasesYear, ""), "year", MinYear, MaxYear, now.Year(), warnings)

	rawDate := Extract(raw, aliasesReleaseDate, "")
	rec.ReleaseDate = NormalizeDate(rawDate, DateFormats)
	if rawDate != "" && rec.ReleaseDate == nil {
		warnings = append(warnings, fmt.Sprintf("release date %q unparseable, leaving unset", rawDate))
	}

	return rec, warnings
}

// fixBoundedInt parses raw as an integer within [lo, hi]. Empty input takes
// the fallback silently; non-empty input that fails to parse or lands out
// of range takes the fallback with a warning.
func fixBoundedInt(raw, field string, lo, hi, fallback int, warnings []string) (int, []string) {
	if strings.TrimSpace(raw) == "" {
		return fallback, warnings
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback, append(warnings, fmt.Sprintf("%s %q is not a number, defaulting to %d", field, raw, fallback))
	}
	if n < lo || n > hi {
		return fallback, append(warnings, fmt.Sprintf("%s %d out of range [%d, %d], defaulting to %d", field, n, lo, hi, fallback))
	}
	return n, warnings
}
