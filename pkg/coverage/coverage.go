package coverage

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	h3 "github.com/uber/h3-go/v4"
)

const (
	earthRadiusKm = 6371.0
	ringSegments  = 72
	// sampleRings controls how densely the disk interior is sampled
	// when collecting covering cells.
	sampleRings = 8
)

// Site is the radar position.
type Site struct {
	Lat float64
	Lon float64
}

// Ring returns the coverage circle of the given radius around the site
// as a closed polygon. Points are geodesic, not planar, so the ring
// stays circular at high latitudes.
func Ring(site Site, radiusKm float64) orb.Polygon {
	ring := make(orb.Ring, 0, ringSegments+1)
	for i := 0; i <= ringSegments; i++ {
		bearing := float64(i) * 360.0 / ringSegments
		ring = append(ring, destination(site, bearing, radiusKm))
	}
	return orb.Polygon{ring}
}

// Feature wraps the coverage ring in a GeoJSON feature with the radius
// attached, ready for a map layer.
func Feature(site Site, radiusKm float64) *geojson.Feature {
	f := geojson.NewFeature(Ring(site, radiusKm))
	f.Properties = geojson.Properties{
		"radius_km": radiusKm,
		"site_lat":  site.Lat,
		"site_lon":  site.Lon,
	}
	return f
}

// Cells returns the distinct H3 cells (hex-encoded) touched by the
// coverage disk at the given resolution, center first. Sampling is
// approximate; a cell straddling the very edge of the disk may be
// missed at coarse resolutions.
func Cells(site Site, radiusKm float64, res int) []string {
	seen := make(map[h3.Cell]struct{})
	var cells []string

	add := func(p orb.Point) {
		cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat(), p.Lon()), res)
		if err != nil || cell == 0 {
			return
		}
		if _, ok := seen[cell]; ok {
			return
		}
		seen[cell] = struct{}{}
		cells = append(cells, strconv.FormatUint(uint64(cell), 16))
	}

	add(orb.Point{site.Lon, site.Lat})
	for r := 1; r <= sampleRings; r++ {
		dist := radiusKm * float64(r) / sampleRings
		for i := 0; i < ringSegments; i++ {
			bearing := float64(i) * 360.0 / ringSegments
			add(destination(site, bearing, dist))
		}
	}
	return cells
}

// destination computes the point at the given bearing (degrees) and
// distance (km) from the site along a great circle.
func destination(site Site, bearingDeg, distKm float64) orb.Point {
	lat1 := site.Lat * math.Pi / 180.0
	lon1 := site.Lon * math.Pi / 180.0
	brng := bearingDeg * math.Pi / 180.0
	angDist := distKm / earthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angDist) +
		math.Cos(lat1)*math.Sin(angDist)*math.Cos(brng))
	lon2 := lon1 + math.Atan2(
		math.Sin(brng)*math.Sin(angDist)*math.Cos(lat1),
		math.Cos(angDist)-math.Sin(lat1)*math.Sin(lat2))

	// Normalize longitude to [-180, 180)
	lonDeg := math.Mod(lon2*180.0/math.Pi+540.0, 360.0) - 180.0
	return orb.Point{lonDeg, lat2 * 180.0 / math.Pi}
}
