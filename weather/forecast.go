package weather

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// Points looks up the grid metadata for a coordinate.
func (c *Client) Points(ctx context.Context, lat, lon float64) (*Points, error) {
	var p Points
	path := fmt.Sprintf("/points/%s,%s", formatCoord(lat), formatCoord(lon))
	if err := c.getJSON(ctx, "points", path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Periods returns the forecast periods for a coordinate in upstream order.
// It resolves the coordinate first, then follows the forecast link.
func (c *Client) Periods(ctx context.Context, lat, lon float64) ([]Period, error) {
	p, err := c.Points(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	if p.Properties.Forecast == "" {
		return nil, &UpstreamError{
			Op:  "points",
			URL: fmt.Sprintf("%s/points/%s,%s", c.baseURL, formatCoord(lat), formatCoord(lon)),
			Err: ErrNoForecastURL,
		}
	}

	var f Forecast
	if err := c.getJSON(ctx, "forecast", p.Properties.Forecast, &f); err != nil {
		return nil, err
	}
	return f.Properties.Periods, nil
}

// GetForecast returns one text block per forecast period.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) ([]string, error) {
	periods, err := c.Periods(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(periods))
	for i, p := range periods {
		out[i] = FormatPeriod(p)
	}
	return out, nil
}

// FormatPeriod renders a period as
//
//	Tonight:
//	Temperature: 52 F
//	Wind: 5 mph SW
//	Forecast: Mostly clear.
func FormatPeriod(p Period) string {
	return fmt.Sprintf("%s:\nTemperature: %s %s\nWind: %s %s\nForecast: %s",
		p.Name, p.Temperature, p.TemperatureUnit, p.WindSpeed, p.WindDirection, p.DetailedForecast)
}

// formatCoord rounds to four decimals, the precision the points endpoint
// accepts without redirecting.
func formatCoord(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e4)/1e4, 'f', -1, 64)
}
