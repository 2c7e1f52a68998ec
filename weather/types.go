package weather

import "encoding/json"

// Points is the /points/{lat},{lon} response. Only the links used here
// are declared.
type Points struct {
	Properties PointsProperties `json:"properties"`
}

// PointsProperties carries the grid metadata for a coordinate.
type PointsProperties struct {
	Forecast         string `json:"forecast"`
	ForecastHourly   string `json:"forecastHourly,omitempty"`
	GridID           string `json:"gridId,omitempty"`
	RelativeLocation struct {
		Properties struct {
			City  string `json:"city"`
			State string `json:"state"`
		} `json:"properties"`
	} `json:"relativeLocation"`
}

// Forecast is the gridpoint forecast response.
type Forecast struct {
	Properties struct {
		Periods []Period `json:"periods"`
	} `json:"properties"`
}

// Period is one named forecast window, such as "Tonight".
type Period struct {
	Number           int         `json:"number"`
	Name             string      `json:"name"`
	Temperature      json.Number `json:"temperature"`
	TemperatureUnit  string      `json:"temperatureUnit"`
	WindSpeed        string      `json:"windSpeed"`
	WindDirection    string      `json:"windDirection"`
	ShortForecast    string      `json:"shortForecast,omitempty"`
	DetailedForecast string      `json:"detailedForecast"`
}

// AlertCollection is the /alerts/active/area/{state} response.
type AlertCollection struct {
	Features []AlertFeature `json:"features"`
}

// AlertFeature wraps one alert.
type AlertFeature struct {
	ID         string          `json:"id,omitempty"`
	Properties AlertProperties `json:"properties"`
}

// AlertProperties describes an active alert. Instruction is nil when the
// issuing office gave none.
type AlertProperties struct {
	Event       string  `json:"event"`
	AreaDesc    string  `json:"areaDesc"`
	Severity    string  `json:"severity"`
	Description string  `json:"description"`
	Instruction *string `json:"instruction"`
}
