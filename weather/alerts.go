package weather

import (
	"context"
	"net/url"
	"strings"
)

// ActiveAlerts returns the active alerts for a two-letter state code in
// upstream order. The code is upper-cased before the request.
func (c *Client) ActiveAlerts(ctx context.Context, state string) ([]AlertProperties, error) {
	var coll AlertCollection
	path := "/alerts/active/area/" + url.PathEscape(strings.ToUpper(strings.TrimSpace(state)))
	if err := c.getJSON(ctx, "alerts", path, &coll); err != nil {
		return nil, err
	}

	alerts := make([]AlertProperties, len(coll.Features))
	for i, f := range coll.Features {
		alerts[i] = f.Properties
	}
	return alerts, nil
}

// GetAlerts returns one text block per active alert. A state without
// alerts yields an empty slice.
func (c *Client) GetAlerts(ctx context.Context, state string) ([]string, error) {
	alerts, err := c.ActiveAlerts(ctx, state)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(alerts))
	for i, a := range alerts {
		out[i] = FormatAlert(a)
	}
	return out, nil
}

// FormatAlert renders an alert as Event, Area, Severity, Description and
// Instruction lines. The Instruction line is left out when there is none.
func FormatAlert(a AlertProperties) string {
	var sb strings.Builder
	sb.WriteString("Event: " + a.Event)
	sb.WriteString("\nArea: " + a.AreaDesc)
	sb.WriteString("\nSeverity: " + a.Severity)
	sb.WriteString("\nDescription: " + a.Description)
	if a.Instruction != nil {
		sb.WriteString("\nInstruction: " + *a.Instruction)
	}
	return sb.String()
}
