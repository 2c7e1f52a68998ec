package weather

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/weather-mcp/server"
)

// Tool names.
const (
	ToolGetAlerts   = "get_alerts"
	ToolGetForecast = "get_forecast"
)

// AlertsInput is the argument object of get_alerts.
type AlertsInput struct {
	State string `json:"state" jsonschema:"required,pattern=^[A-Za-z]{2}$,description=Two-letter US state code such as CA or NY"`
}

// ForecastInput is the argument object of get_forecast.
type ForecastInput struct {
	Latitude  float64 `json:"latitude" jsonschema:"required,minimum=-90,maximum=90,description=Latitude of the location"`
	Longitude float64 `json:"longitude" jsonschema:"required,minimum=-180,maximum=180,description=Longitude of the location"`
}

// Register adds get_alerts and get_forecast, both backed by c, to srv.
func Register(srv *server.Server, c *Client) error {
	alerts := srv.Tool(ToolGetAlerts).
		Description("Get weather alerts for a US state. Input is a two-letter US state code (e.g. CA, NY).").
		Title("Weather alerts").
		ReadOnly().
		OpenWorld().
		Handler(func(ctx context.Context, in AlertsInput) ([]string, error) {
			return c.GetAlerts(ctx, in.State)
		})

	forecast := srv.Tool(ToolGetForecast).
		Description("Get the weather forecast for a latitude/longitude location.").
		Title("Weather forecast").
		ReadOnly().
		Idempotent().
		OpenWorld().
		Handler(func(ctx context.Context, in ForecastInput) ([]string, error) {
			return c.GetForecast(ctx, in.Latitude, in.Longitude)
		})

	return errors.Join(alerts.Err(), forecast.Err())
}
