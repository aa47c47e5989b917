package providers

import (
	"math"
	"time"
)

// popDecay is the per-slot reduction applied to precipitation probability for
// synthesised intermediate hours: confidence drops the further an hour sits
// from the real forecast slot.
const popDecay = 0.3

// interpolateHourly expands a 3-hour forecast series to hourly resolution.
// Numeric fields are linearly interpolated between consecutive slots; the
// description and icon of the earlier slot are carried forward; precipitation
// probability decays towards the next slot. The final slot is appended as-is.
func interpolateHourly(base []ForecastEntry) []ForecastEntry {
	if len(base) < 2 {
		return base
	}

	hourly := make([]ForecastEntry, 0, len(base)*3)
	for i := 0; i < len(base)-1; i++ {
		current, next := base[i], base[i+1]
		hourly = append(hourly, current)

		for offset := 1; offset <= 2; offset++ {
			progress := float64(offset) / 3.0
			hourly = append(hourly, ForecastEntry{
				Time:              current.Time.Add(time.Duration(offset) * time.Hour),
				Temperature:       round1(lerp(current.Temperature, next.Temperature, progress)),
				FeelsLike:         round1(lerp(current.FeelsLike, next.FeelsLike, progress)),
				Humidity:          int(math.Round(lerp(float64(current.Humidity), float64(next.Humidity), progress))),
				Pressure:          int(math.Round(lerp(float64(current.Pressure), float64(next.Pressure), progress))),
				WindSpeed:         round1(lerp(current.WindSpeed, next.WindSpeed, progress)),
				Description:       current.Description,
				Icon:              current.Icon,
				PrecipProbability: round1(current.PrecipProbability * (1.0 - progress*popDecay)),
			})
		}
	}
	hourly = append(hourly, base[len(base)-1])
	return hourly
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
