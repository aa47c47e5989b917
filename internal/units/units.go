// Package units holds the unit-conversion and classification helpers shared
// by the gateway, handlers, and CLI: temperature and speed conversion, AQI
// severity buckets, and compass wind directions.
package units

import "math"

// CelsiusToFahrenheit converts °C to °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9.0/5.0 + 32.0
}

// FahrenheitToCelsius converts °F to °C.
func FahrenheitToCelsius(f float64) float64 {
	return (f - 32.0) * 5.0 / 9.0
}

// MpsToKmh converts metres/second to kilometres/hour.
func MpsToKmh(mps float64) float64 {
	return mps * 3.6
}

// MpsToMph converts metres/second to miles/hour.
func MpsToMph(mps float64) float64 {
	return mps * 2.236936
}

// HPaToInHg converts hectopascals to inches of mercury.
func HPaToInHg(hpa float64) float64 {
	return hpa * 0.029529983
}

// MetersToKm converts metres to kilometres (visibility).
func MetersToKm(m float64) float64 {
	return m / 1000.0
}

// Round1 rounds v to one decimal place, matching the precision the weather
// endpoints report.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// AQICategory returns the US EPA severity bucket for an AQI value.
// Out-of-range values clamp to the nearest bucket: negative input is "Good",
// anything above 300 (including the nominal 500 scale top) is "Hazardous".
func AQICategory(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

// pollutionIndexAQI maps OpenWeather's 1..5 air-pollution index onto an
// approximate midpoint of the corresponding EPA bucket.
var pollutionIndexAQI = [...]int{25, 75, 125, 175, 400}

// PollutionIndexToAQI converts OpenWeather's coarse 1..5 pollution index to
// an approximate EPA AQI value. Out-of-range indices clamp.
func PollutionIndexToAQI(index int) int {
	if index < 1 {
		index = 1
	}
	if index > 5 {
		index = 5
	}
	return pollutionIndexAQI[index-1]
}

var compassSectors = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirection converts wind degrees to a 16-sector compass label. Degrees
// are rounded to the nearest 22.5° sector, wrapping at north: 0° → N,
// 90° → E, 359° → N.
func WindDirection(degrees float64) string {
	degrees = math.Mod(degrees, 360)
	if degrees < 0 {
		degrees += 360
	}
	sector := int(math.Round(degrees/22.5)) % 16
	return compassSectors[sector]
}
