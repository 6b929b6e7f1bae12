package geocode

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// earthRadiusKM is the mean Earth radius used by CalculateDistance.
const earthRadiusKM = 6371.0

// CalculateDistance returns the great-circle distance in kilometres between two
// points using the haversine formula. Inputs are not validated.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// DistanceChecked is CalculateDistance with both points validated first.
func DistanceChecked(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if !ValidateCoordinates(lat1, lon1) {
		return 0, eris.Wrapf(ErrValidation, "geocode: point (%v, %v)", lat1, lon1)
	}
	if !ValidateCoordinates(lat2, lon2) {
		return 0, eris.Wrapf(ErrValidation, "geocode: point (%v, %v)", lat2, lon2)
	}
	return CalculateDistance(lat1, lon1, lat2, lon2), nil
}

// ValidateCoordinates reports whether lat is in [-90, 90] and lon in
// [-180, 180]. NaN and infinities are rejected.
func ValidateCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ValidateCoordinateStrings parses and validates user-supplied coordinates.
func ValidateCoordinateStrings(lat, lon string) bool {
	_, _, err := ParseCoordinates(lat, lon)
	return err == nil
}

// ParseCoordinates parses a lat/lon pair, returning ErrValidation for
// non-numeric or out-of-range input.
func ParseCoordinates(lat, lon string) (float64, float64, error) {
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(ErrValidation, "geocode: latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return 0, 0, eris.Wrapf(ErrValidation, "geocode: longitude %q", lon)
	}
	if !ValidateCoordinates(la, lo) {
		return 0, 0, eris.Wrapf(ErrValidation, "geocode: point (%s, %s)", lat, lon)
	}
	return la, lo, nil
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
