package weather

import (
	"fmt"
	"time"

	"weather-poller/internal/domain/entity"
	"weather-poller/internal/domain/model/external"
)

// ToWeatherRecord flattens a reading into a stored record. Only the first
// weather condition is kept and every missing optional value becomes zero.
//
// It panics when the reading has no condition or when dt falls outside the
// years 1 to 9999, both of which mean a malformed provider payload.
func ToWeatherRecord(reading *external.CurrentWeatherResponse) entity.WeatherRecord {
	condition := reading.Weather[0]

	observed := time.Unix(reading.Dt, 0).UTC()
	if year := observed.Year(); year < 1 || year > 9999 {
		panic(fmt.Sprintf("weather reading for %s has an unrepresentable timestamp %d", reading.Name, reading.Dt))
	}

	rain3h, rain1h := precipitation(reading.Rain)
	snow3h, snow1h := precipitation(reading.Snow)

	return entity.WeatherRecord{
		City:          reading.Name,
		Description:   condition.Description,
		Icon:          condition.Icon,
		MainWeather:   condition.Main,
		CityID:        reading.ID,
		Visibility:    reading.Visibility,
		Humidity:      reading.Main.Humidity,
		Pressure:      reading.Main.Pressure,
		Time:          observed.Format(entity.RecordTimeLayout),
		UnixUTC:       reading.Dt,
		Rain3h:        rain3h,
		Rain1h:        rain1h,
		Snow3h:        snow3h,
		Snow1h:        snow1h,
		MinTemp:       reading.Main.TempMin,
		MaxTemp:       reading.Main.TempMax,
		Temp:          reading.Main.Temp,
		Country:       reading.Sys.Country,
		Sunrise:       reading.Sys.Sunrise,
		Sunset:        reading.Sys.Sunset,
		Clouds:        reading.Clouds.All,
		WindDirection: reading.Wind.Deg,
		WindSpeed:     reading.Wind.Speed,
		Latitude:      reading.Coord.Lat,
		Longitude:     reading.Coord.Lon,
	}
}

func precipitation(p *external.Precipitation) (threeHour, oneHour float64) {
	if p == nil {
		return 0, 0
	}
	if p.ThreeHour != nil {
		threeHour = *p.ThreeHour
	}
	if p.OneHour != nil {
		oneHour = *p.OneHour
	}
	return threeHour, oneHour
}
