package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKnownPairs(t *testing.T) {
	// Paris to London, roughly 344 km.
	paris := Point{Lat: 48.8566, Lon: 2.3522}
	london := Point{Lat: 51.5074, Lon: -0.1278}
	d := Distance(paris, london)
	assert.InDelta(t, 344000, d, 5000)

	// Zero distance to self.
	assert.Equal(t, 0.0, Distance(paris, paris))

	// Symmetry.
	assert.InDelta(t, Distance(paris, london), Distance(london, paris), 1e-6)
}

func TestDistanceNearPoles(t *testing.T) {
	// Two points at 89.9N separated by 180 degrees of longitude are ~22 km
	// apart over the pole. A planar calculation would report thousands of km.
	a := Point{Lat: 89.9, Lon: 0}
	b := Point{Lat: 89.9, Lon: 180}
	d := Distance(a, b)
	assert.InDelta(t, 22240, d, 300)
}

func TestWithinRadiusBoundaryInclusive(t *testing.T) {
	center := Point{Lat: 50, Lon: 10}
	// Walk east until we find a point whose distance is just at a chosen
	// radius, then check inclusivity at the exact boundary.
	p := Point{Lat: 50, Lon: 10.1}
	r := Distance(center, p)

	assert.True(t, WithinRadius(center, p, r), "point exactly at radius is included")
	assert.False(t, WithinRadius(center, p, r-1), "one meter under the distance is excluded")
	assert.True(t, WithinRadius(center, p, r+1))
}

func TestCentroid(t *testing.T) {
	_, ok := Centroid(nil)
	assert.False(t, ok)

	c, ok := Centroid([]Point{{Lat: 10, Lon: 20}})
	assert.True(t, ok)
	assert.Equal(t, Point{Lat: 10, Lon: 20}, c)

	c, ok = Centroid([]Point{{Lat: 0, Lon: 0}, {Lat: 2, Lon: 4}})
	assert.True(t, ok)
	assert.InDelta(t, 1, c.Lat, 1e-9)
	assert.InDelta(t, 2, c.Lon, 1e-9)
}

func TestBoundingBoxCoversCircle(t *testing.T) {
	center := Point{Lat: 48.0, Lon: 11.0}
	radius := 5000.0
	b := BoundingBox(center, radius)

	// Sample the circle's rim; every rim point must be inside the box.
	for deg := 0; deg < 360; deg += 15 {
		rad := float64(deg) * math.Pi / 180
		p := Point{
			Lat: center.Lat + (radius/EarthRadiusMeters)*(180/math.Pi)*math.Sin(rad),
			Lon: center.Lon + (radius/(EarthRadiusMeters*math.Cos(center.Lat*math.Pi/180)))*(180/math.Pi)*math.Cos(rad),
		}
		assert.True(t, b.Contains(p), "rim point at %d degrees outside box", deg)
	}
}

func TestBoundingBoxNearPole(t *testing.T) {
	b := BoundingBox(Point{Lat: 89.99, Lon: 0}, 50000)
	assert.Equal(t, -180.0, b.MinLon)
	assert.Equal(t, 180.0, b.MaxLon)
	assert.Equal(t, 90.0, b.MaxLat)
}

func TestBoundsContainsAntimeridian(t *testing.T) {
	b := Bounds{MinLat: -10, MaxLat: 10, MinLon: 170, MaxLon: -170}
	assert.True(t, b.Contains(Point{Lat: 0, Lon: 175}))
	assert.True(t, b.Contains(Point{Lat: 0, Lon: -175}))
	assert.True(t, b.Contains(Point{Lat: 0, Lon: 180}))
	assert.False(t, b.Contains(Point{Lat: 0, Lon: 0}))
}
