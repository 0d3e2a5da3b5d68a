package weather

// currentWeatherResponse mirrors the relevant parts of the OpenWeather
// current-weather payload. Fields we do not read are omitted.
type currentWeatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp float64 `json:"temp"` // degrees Celsius with units=metric
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // metres per second with units=metric
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"` // millimetres over the last hour
	} `json:"rain"`
	Dt  int64 `json:"dt"` // observation time, unix seconds
	Cod any   `json:"cod"`
}

// apiError mirrors OpenWeather's error payload, e.g.
// {"cod":"404","message":"city not found"}.
type apiError struct {
	Cod     any    `json:"cod"`
	Message string `json:"message"`
}
