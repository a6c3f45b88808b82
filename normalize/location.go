package normalize

import (
	"strconv"
	"strings"

	"resellerdash/models"
)

// Province boxes. These are rough rectangles around the two provinces the
// reseller serves, not administrative boundaries.
const (
	limpopoMinLat = -25.3
	limpopoMaxLat = -22.0
	gautengMinLat = -28.0
	gautengMinLon = 27.0
	gautengMaxLon = 29.5
)

// ClassifyLocation buckets a "lat,lon" string into a province.
func ClassifyLocation(gps string) models.Location {
	lat, lon, ok := parseGPS(gps)
	if !ok {
		return models.LocationOther
	}
	if lat >= limpopoMinLat && lat <= limpopoMaxLat {
		return models.LocationLimpopo
	}
	if lat >= gautengMinLat && lat < limpopoMinLat && lon >= gautengMinLon && lon <= gautengMaxLon {
		return models.LocationGauteng
	}
	return models.LocationOther
}

func parseGPS(gps string) (float64, float64, bool) {
	parts := strings.Split(gps, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, false
	}
	return lat, lon, true
}
