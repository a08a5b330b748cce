package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/ravenfield/copx/geo"
)

// HandleRadiusQuery serves /api/query/radius: reports or events within a
// great-circle radius of a center point. Boundary hits are included.
func (s *Server) HandleRadiusQuery(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()

	center, ok := pointParam(w, q, "lat", "lon")
	if !ok {
		return
	}
	radius, err := strconv.ParseFloat(q.Get("radius_m"), 64)
	if err != nil || radius < 0 {
		writeError(w, http.StatusBadRequest, "radius_m must be a non-negative number")
		return
	}

	switch kind := q.Get("kind"); kind {
	case "", "reports":
		reports, err := s.engine.ReportsWithinRadius(r.Context(), actor, center, radius)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports, "count": len(reports)})
	case "events":
		events, err := s.engine.EventsWithinRadius(r.Context(), actor, center, radius)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"events": events, "count": len(events)})
	default:
		writeError(w, http.StatusBadRequest, "kind must be reports or events")
	}
}

// HandleBoundsQuery serves /api/query/bounds: entities inside a bounding
// box, for map viewport loading. Boxes may cross the antimeridian.
func (s *Server) HandleBoundsQuery(w http.ResponseWriter, r *http.Request, actor string) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()

	b := geo.Bounds{}
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"min_lat", &b.MinLat},
		{"min_lon", &b.MinLon},
		{"max_lat", &b.MaxLat},
		{"max_lon", &b.MaxLon},
	} {
		v, err := strconv.ParseFloat(q.Get(f.name), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, f.name+" must be a number")
			return
		}
		*f.dst = v
	}

	switch kind := q.Get("kind"); kind {
	case "", "reports":
		reports, err := s.engine.ReportsWithinBounds(r.Context(), actor, b)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports, "count": len(reports)})
	case "events":
		events, err := s.engine.EventsWithinBounds(r.Context(), actor, b)
		if err != nil {
			s.writeEngineError(w, r, actor, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"events": events, "count": len(events)})
	default:
		writeError(w, http.StatusBadRequest, "kind must be reports or events")
	}
}

func pointParam(w http.ResponseWriter, q url.Values, latKey, lonKey string) (geo.Point, bool) {
	lat, err := strconv.ParseFloat(q.Get(latKey), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, latKey+" must be a number")
		return geo.Point{}, false
	}
	lon, err := strconv.ParseFloat(q.Get(lonKey), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, lonKey+" must be a number")
		return geo.Point{}, false
	}
	return geo.Point{Lat: lat, Lon: lon}, true
}
