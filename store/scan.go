package store

import (
	"database/sql"
	"encoding/json"

	"github.com/ravenfield/copx/classify"
	"github.com/ravenfield/copx/errors"
	"github.com/ravenfield/copx/geo"
)

// classifyLevel maps a stored ordinal back to a Level, clamping anything out
// of range to Unclassified. Matches the lattice's own fallback rule.
func classifyLevel(ord int) classify.Level {
	l := classify.Level(ord)
	if !l.Valid() {
		return classify.Unclassified
	}
	return l
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func pointColumns(p *geo.Point) (lat, lon sql.NullFloat64) {
	if p == nil {
		return
	}
	return sql.NullFloat64{Float64: p.Lat, Valid: true}, sql.NullFloat64{Float64: p.Lon, Valid: true}
}

func pointFromColumns(lat, lon sql.NullFloat64) *geo.Point {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &geo.Point{Lat: lat.Float64, Lon: lon.Float64}
}

func marshalJSON(v interface{}) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, errors.Wrap(err, "marshal json column")
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func unmarshalJSON(col sql.NullString, dst interface{}) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), dst); err != nil {
		return errors.Wrap(err, "unmarshal json column")
	}
	return nil
}

// storeErr tags a driver failure as a collaborator outage while keeping the
// underlying cause for formatting.
func storeErr(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), errors.ErrUnavailable)
}
