// Package octranspo decodes OC Transpo route-summary payloads into the
// board's typed models and fetches them from the live API.
package octranspo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"busboard/internal/models"
)

// ErrUpstream marks a payload whose Error field is set.
var ErrUpstream = errors.New("octranspo: upstream error")

// Decode reads one route-summary payload and converts it into a Stop.
func Decode(r io.Reader) (*models.Stop, error) {
	var resp RouteSummaryResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode route summary: %w", err)
	}
	return resp.Result.ToStop()
}

// ToStop converts the wire form into a Stop, preserving route and trip order.
func (s RouteSummary) ToStop() (*models.Stop, error) {
	if code := strings.TrimSpace(string(s.Error)); code != "" {
		return nil, fmt.Errorf("%w: code %s (%s)", ErrUpstream, code, errorText(code))
	}

	stop := &models.Stop{
		Code:        strings.TrimSpace(string(s.StopNo)),
		Description: strings.TrimSpace(string(s.StopDescription)),
		Routes:      make([]models.Route, 0, len(s.Routes.Route)),
	}

	for _, r := range s.Routes.Route {
		route := models.Route{
			Number:      strings.TrimSpace(string(r.RouteNo)),
			Heading:     string(r.RouteHeading),
			DirectionID: int(r.DirectionID),
			Direction:   string(r.Direction),
			Trips:       make([]models.Trip, 0, len(r.Trips)),
		}
		for _, t := range r.Trips {
			route.Trips = append(route.Trips, models.Trip{
				Destination:          string(t.TripDestination),
				ScheduledStartTime:   string(t.TripStartTime),
				AdjustedScheduleTime: string(t.AdjustedScheduleTime),
				AdjustmentAge:        string(t.AdjustmentAge),
				Longitude:            string(t.Longitude),
				Latitude:             string(t.Latitude),
				GPSSpeed:             string(t.GPSSpeed),
				BusType:              string(t.BusType),
				LastTripOfSchedule:   bool(t.LastTripOfSchedule),
			})
		}
		stop.Routes = append(stop.Routes, route)
	}

	return stop, nil
}

// errorText maps the documented API error codes to a short description.
func errorText(code string) string {
	switch code {
	case "1":
		return "invalid API key"
	case "2":
		return "unable to query data source"
	case "10":
		return "invalid stop number"
	case "11":
		return "invalid route number"
	case "12":
		return "stop does not service route"
	default:
		return "unknown error"
	}
}
