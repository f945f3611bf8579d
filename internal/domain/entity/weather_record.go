package entity

import "time"

// RecordTimeLayout is the layout of the Time column, always in UTC.
const RecordTimeLayout = "2006-01-02 15:04:05"

// WeatherRecord is one stored reading. Field order is the column order of
// the output files and must not change.
type WeatherRecord struct {
	City          string  `csv:"City" json:"city"`
	Description   string  `csv:"Description" json:"description"`
	Icon          string  `csv:"Icon" json:"icon"`
	MainWeather   string  `csv:"Main_Weather" json:"mainWeather"`
	CityID        uint64  `csv:"ID" json:"cityId"`
	Visibility    uint64  `csv:"Visibility[m]" json:"visibility"`
	Humidity      float64 `csv:"Humidity[%]" json:"humidity"`
	Pressure      float64 `csv:"Pressure[hPa]" json:"pressure"`
	Time          string  `csv:"Time" json:"time"`
	UnixUTC       int64   `csv:"UNIX_UTC" json:"unixUtc"`
	Rain3h        float64 `csv:"Rain[3h][mm]" json:"rain3h"`
	Rain1h        float64 `csv:"Rain[1h][mm]" json:"rain1h"`
	Snow3h        float64 `csv:"Snow[3h][mm]" json:"snow3h"`
	Snow1h        float64 `csv:"Snow[1h][mm]" json:"snow1h"`
	MinTemp       float64 `csv:"Min_temp" json:"minTemp"`
	MaxTemp       float64 `csv:"Max_temp" json:"maxTemp"`
	Temp          float64 `csv:"Temp" json:"temp"`
	Country       string  `csv:"Country" json:"country"`
	Sunrise       int64   `csv:"Sunrise" json:"sunrise"`
	Sunset        int64   `csv:"Sunset" json:"sunset"`
	Clouds        float64 `csv:"Clouds[%]" json:"clouds"`
	WindDirection float64 `csv:"Wind_direction" json:"windDirection"`
	WindSpeed     float64 `csv:"Wind_speed[m/s]" json:"windSpeed"`
	Latitude      float64 `csv:"Latitude" json:"latitude"`
	Longitude     float64 `csv:"Longitude" json:"longitude"`
}

// Year returns the UTC calendar year of the reading, used as file partition.
func (r WeatherRecord) Year() int {
	return time.Unix(r.UnixUTC, 0).UTC().Year()
}
