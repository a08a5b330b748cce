package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatticeIsTotalOrderWithFourLevels(t *testing.T) {
	levels := Levels()
	assert.Len(t, levels, 4)
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, int(levels[i]), int(levels[i-1]))
	}
}

func TestCanAccess(t *testing.T) {
	for _, required := range Levels() {
		for _, clearance := range Levels() {
			got := CanAccess(required, clearance)
			assert.Equal(t, clearance >= required, got,
				"CanAccess(%s, %s)", required, clearance)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
		ok    bool
	}{
		{"TOP_SECRET", TopSecret, true},
		{"top_secret", TopSecret, true},
		{"TS", TopSecret, true},
		{"ts", TopSecret, true},
		{"SECRET", Secret, true},
		{"S", Secret, true},
		{"CONFIDENTIAL", Confidential, true},
		{"C", Confidential, true},
		{"UNCLASSIFIED", Unclassified, true},
		{"U", Unclassified, true},
		{"  SECRET  ", Secret, true},
	}
	for _, tc := range tests {
		got, ok := ParseLevel(tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
		assert.Equal(t, tc.ok, ok, "input %q", tc.input)
	}
}

// Unknown strings fall back to Unclassified with ok=false. The fallback is
// legacy-compatible behavior; the ok flag exists so ingestion paths can
// audit it instead of silently downgrading.
func TestParseLevelUnknownFallsBackToUnclassified(t *testing.T) {
	for _, input := range []string{"", "TOPSECRET", "SECRT", "classified", "4", "NOFORN"} {
		got, ok := ParseLevel(input)
		assert.Equal(t, Unclassified, got, "input %q", input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestMaxOf(t *testing.T) {
	assert.Equal(t, Unclassified, MaxOf())
	assert.Equal(t, TopSecret, MaxOf(Confidential, TopSecret, Secret))
	assert.Equal(t, Secret, MaxOf(Secret))
}

func TestStringAndAbbreviation(t *testing.T) {
	assert.Equal(t, "TOP_SECRET", TopSecret.String())
	assert.Equal(t, "TS", TopSecret.Abbreviation())
	assert.Equal(t, "UNCLASSIFIED", Level(99).String())
	assert.False(t, Level(99).Valid())
}
