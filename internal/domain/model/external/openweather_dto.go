package external

// CurrentWeatherResponse represents the response from the current weather API
type CurrentWeatherResponse struct {
	Coord      Coordinates        `json:"coord"`
	Weather    []WeatherCondition `json:"weather"`
	Base       string             `json:"base"`
	Main       MainReadings       `json:"main"`
	Visibility uint64             `json:"visibility"`
	Wind       Wind               `json:"wind"`
	Clouds     Clouds             `json:"clouds"`
	Rain       *Precipitation     `json:"rain,omitempty"`
	Snow       *Precipitation     `json:"snow,omitempty"`
	Dt         int64              `json:"dt"`
	Sys        SystemInfo         `json:"sys"`
	Timezone   int64              `json:"timezone"`
	ID         uint64             `json:"id"`
	Name       string             `json:"name"`
	Cod        any                `json:"cod"`
}

type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// WeatherCondition is one entry of the condition list; the first one is the primary condition
type WeatherCondition struct {
	ID          uint64 `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  float64 `json:"pressure"`
	Humidity  float64 `json:"humidity"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
	Gust  float64 `json:"gust,omitempty"`
}

type Clouds struct {
	All float64 `json:"all"`
}

// Precipitation holds rain or snow volumes in mm; either window may be missing
type Precipitation struct {
	OneHour   *float64 `json:"1h,omitempty"`
	ThreeHour *float64 `json:"3h,omitempty"`
}

type SystemInfo struct {
	Country string `json:"country,omitempty"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}

// APIErrorResponse represents error responses from the weather API. cod is a
// number on some endpoints and a string on others.
type APIErrorResponse struct {
	Cod     any    `json:"cod"`
	Message string `json:"message"`
}
