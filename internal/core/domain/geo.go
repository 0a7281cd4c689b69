package domain

import "math"

// wgs84A is the WGS84 semi-major axis in meters.
const wgs84A = 6378137.0

// LatLon is a geographic coordinate in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// LatLonAlt is a geographic coordinate with altitude in meters.
type LatLonAlt struct {
	LatLon
	Alt float64 `json:"alt"`
}

// metersPerDegree returns the local east and north meters-per-degree scale
// at the given latitude.
func metersPerDegree(lat float64) (east, north float64) {
	rad := lat * math.Pi / 180
	north = wgs84A * math.Pi / 180
	east = north * math.Cos(rad)
	return east, north
}

// ENU returns the local east/north/up offset in meters from the receiver to
// the target. The local tangent plane approximation is accurate well beyond
// the edge search radii used by the graph.
func (l LatLonAlt) ENU(to LatLonAlt) (east, north, up float64) {
	mpdEast, mpdNorth := metersPerDegree(l.Lat)
	east = (to.Lon - l.Lon) * mpdEast
	north = (to.Lat - l.Lat) * mpdNorth
	up = to.Alt - l.Alt
	return east, north, up
}

// Distance returns the planar distance in meters between the two coordinates.
func (l LatLon) Distance(to LatLon) float64 {
	mpdEast, mpdNorth := metersPerDegree(l.Lat)
	east := (to.Lon - l.Lon) * mpdEast
	north := (to.Lat - l.Lat) * mpdNorth
	return math.Hypot(east, north)
}

// Translate returns the coordinate offset by the given east/north meters.
func (l LatLon) Translate(east, north float64) LatLon {
	mpdEast, mpdNorth := metersPerDegree(l.Lat)
	return LatLon{
		Lat: l.Lat + north/mpdNorth,
		Lon: l.Lon + east/mpdEast,
	}
}

// NormalizeAngle wraps an angle in degrees into (-180, 180].
func NormalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	switch {
	case deg > 180:
		deg -= 360
	case deg <= -180:
		deg += 360
	}
	return deg
}

// AngleDifference returns the signed smallest difference b-a in degrees.
func AngleDifference(a, b float64) float64 {
	return NormalizeAngle(b - a)
}
