// Package geo fills in route distances from waypoint coordinates.
package geo

import (
	"github.com/golang/geo/s2"

	"freshlogic/internal/models"
)

// EarthRadiusKm is the mean Earth radius.
const EarthRadiusKm = 6371.0088

// DistanceKm is the great-circle distance between two points in kilometres.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// RouteLengthKm sums the leg lengths along the waypoints.
func RouteLengthKm(waypoints []models.Waypoint) float64 {
	total := 0.0
	for i := 1; i < len(waypoints); i++ {
		a, b := waypoints[i-1], waypoints[i]
		total += DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
	}
	return total
}

// NeedsDistances reports whether the route carries coordinates but no
// distances at all.
func NeedsDistances(waypoints []models.Waypoint) bool {
	if len(waypoints) < 2 {
		return false
	}
	hasCoords := false
	for _, wp := range waypoints {
		if wp.DistanceKm != 0 {
			return false
		}
		if wp.Lat != 0 || wp.Lon != 0 {
			hasCoords = true
		}
	}
	return hasCoords
}

// FillDistances returns a copy of waypoints with DistanceKm set to the
// cumulative great-circle distance from the first waypoint. Routes that
// already carry distances are returned unchanged.
func FillDistances(waypoints []models.Waypoint) []models.Waypoint {
	out := make([]models.Waypoint, len(waypoints))
	copy(out, waypoints)
	if !NeedsDistances(waypoints) {
		return out
	}
	for i := 1; i < len(out); i++ {
		a, b := out[i-1], out[i]
		out[i].DistanceKm = a.DistanceKm + DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon)
	}
	return out
}
