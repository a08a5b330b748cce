// Package geo provides the geospatial primitives used by fusion and
// map/report retrieval: WGS-84 points, great-circle distance, centroids,
// and bounding boxes.
//
// Distances are geodesic (haversine over a spherical earth), not planar.
// Planar approximations fall apart near the poles and over the multi-
// kilometer radii fusion operates at.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius used for great-circle math.
const EarthRadiusMeters = 6371000.0

// Point is a WGS-84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is a latitude/longitude bounding box. MinLon may exceed MaxLon for
// boxes crossing the antimeridian; Contains handles the wrap.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRadius reports whether p lies within radiusMeters of center.
// The radius is inclusive: a point exactly at the boundary is in.
func WithinRadius(center, p Point, radiusMeters float64) bool {
	return Distance(center, p) <= radiusMeters
}

// Centroid returns the arithmetic centroid of points. Adequate for the
// tightly clustered points fusion produces; not meaningful for point sets
// spanning the antimeridian. Returns ok=false for an empty slice.
func Centroid(points []Point) (Point, bool) {
	if len(points) == 0 {
		return Point{}, false
	}
	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(points))
	return Point{Lat: sumLat / n, Lon: sumLon / n}, true
}

// Contains reports whether p lies within b, boundary inclusive.
func (b Bounds) Contains(p Point) bool {
	if p.Lat < b.MinLat || p.Lat > b.MaxLat {
		return false
	}
	if b.MinLon <= b.MaxLon {
		return p.Lon >= b.MinLon && p.Lon <= b.MaxLon
	}
	// Box crosses the antimeridian.
	return p.Lon >= b.MinLon || p.Lon <= b.MaxLon
}

// BoundingBox returns a box guaranteed to contain the circle of
// radiusMeters around center. Used as a cheap SQL prefilter before the
// exact geodesic check; it over-covers near the poles, never under-covers.
func BoundingBox(center Point, radiusMeters float64) Bounds {
	dLat := radiusMeters / EarthRadiusMeters * 180 / math.Pi

	b := Bounds{
		MinLat: center.Lat - dLat,
		MaxLat: center.Lat + dLat,
	}
	if b.MinLat < -90 {
		b.MinLat = -90
	}
	if b.MaxLat > 90 {
		b.MaxLat = 90
	}

	// Longitude degrees shrink with cos(lat); size the box at the latitude
	// extreme closest to a pole so the circle always fits.
	maxAbsLat := math.Max(math.Abs(b.MinLat), math.Abs(b.MaxLat))
	cosLat := math.Cos(maxAbsLat * math.Pi / 180)
	if cosLat <= 0 {
		// Circle touches a pole; every longitude qualifies.
		b.MinLon, b.MaxLon = -180, 180
		return b
	}
	dLon := radiusMeters / (EarthRadiusMeters * cosLat) * 180 / math.Pi
	if dLon >= 180 {
		b.MinLon, b.MaxLon = -180, 180
		return b
	}
	b.MinLon = normalizeLon(center.Lon - dLon)
	b.MaxLon = normalizeLon(center.Lon + dLon)
	return b
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}
