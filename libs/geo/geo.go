package geo

import "math"

// EarthRadiusM is the mean Earth radius used by the haversine formula.
const EarthRadiusM = 6371000.0

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b Point) float64 {
	dLat := toRadians(b.Latitude - a.Latitude)
	dLng := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusM * c
}

// PointToSegmentDistance returns the distance in meters from p to the segment
// between a and b. The projection scalar is computed on raw lat/lng treated as
// Cartesian coordinates and clamped to the segment; only the final distance is
// geodesic. Good enough at city scale, not geodetically exact for long
// segments or high latitudes.
func PointToSegmentDistance(p, a, b Point) float64 {
	dLat := p.Latitude - a.Latitude
	dLng := p.Longitude - a.Longitude
	segLat := b.Latitude - a.Latitude
	segLng := b.Longitude - a.Longitude

	dot := dLat*segLat + dLng*segLng
	lenSq := segLat*segLat + segLng*segLng

	param := -1.0
	if lenSq != 0 {
		param = dot / lenSq
	}

	var closest Point
	switch {
	case param < 0:
		closest = a
	case param > 1:
		closest = b
	default:
		closest = Point{
			Latitude:  a.Latitude + param*segLat,
			Longitude: a.Longitude + param*segLng,
		}
	}

	return Distance(p, closest)
}

// MoveTowards returns the point reached by travelling meters from cur towards
// target along the straight lat/lng interpolation. Arrival at the target is
// clamped, it never overshoots.
func MoveTowards(cur, target Point, meters float64) Point {
	total := Distance(cur, target)
	if total <= meters {
		return target
	}

	ratio := meters / total
	return Point{
		Latitude:  cur.Latitude + (target.Latitude-cur.Latitude)*ratio,
		Longitude: cur.Longitude + (target.Longitude-cur.Longitude)*ratio,
	}
}
