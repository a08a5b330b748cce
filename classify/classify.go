// Package classify implements the classification lattice used across COPX.
//
// Levels form a strict total order: UNCLASSIFIED < CONFIDENTIAL < SECRET <
// TOP_SECRET. A viewer with clearance c may access material classified at r
// iff c >= r. The lattice is process-wide, immutable configuration; nothing
// in it performs I/O.
package classify

import "strings"

// Level is an ordinal classification level.
type Level int

const (
	Unclassified Level = iota
	Confidential
	Secret
	TopSecret
)

var levelNames = map[Level]string{
	Unclassified: "UNCLASSIFIED",
	Confidential: "CONFIDENTIAL",
	Secret:       "SECRET",
	TopSecret:    "TOP_SECRET",
}

var levelAbbreviations = map[Level]string{
	Unclassified: "U",
	Confidential: "C",
	Secret:       "S",
	TopSecret:    "TS",
}

// Levels returns all levels in ascending order.
func Levels() []Level {
	return []Level{Unclassified, Confidential, Secret, TopSecret}
}

// String returns the canonical name, e.g. "TOP_SECRET".
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNCLASSIFIED"
}

// Abbreviation returns the short banner marking, e.g. "TS".
func (l Level) Abbreviation() string {
	if abbr, ok := levelAbbreviations[l]; ok {
		return abbr
	}
	return "U"
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	return l >= Unclassified && l <= TopSecret
}

// CanAccess reports whether a viewer holding clearance may read material
// classified at l.
func CanAccess(required, clearance Level) bool {
	return clearance >= required
}

// Max returns the higher of two levels.
func Max(a, b Level) Level {
	if a >= b {
		return a
	}
	return b
}

// MaxOf returns the highest level among levels, or Unclassified for an
// empty slice.
func MaxOf(levels ...Level) Level {
	max := Unclassified
	for _, l := range levels {
		if l > max {
			max = l
		}
	}
	return max
}

// ParseLevel maps a canonical name or abbreviation (case-insensitive) to a
// Level. Unrecognized input maps to Unclassified rather than failing; ok is
// false in that case so callers can record the fallback. Treating bad input
// as the lowest level mirrors the legacy platform and is deliberately
// preserved; callers that ingest external data should audit when ok is
// false, since a typo in "TOP_SECRET" would otherwise silently downgrade
// the record.
func ParseLevel(s string) (level Level, ok bool) {
	needle := strings.TrimSpace(s)
	for _, l := range Levels() {
		if strings.EqualFold(needle, levelNames[l]) || strings.EqualFold(needle, levelAbbreviations[l]) {
			return l, true
		}
	}
	return Unclassified, false
}
