// Package board builds the display model of a stop's upcoming arrivals and
// owns the refresh state machine that feeds it.
package board

import (
	"busboard/internal/clock"
	"busboard/internal/models"
	"busboard/internal/schedule"
)

// Route accent colours.
const (
	PrimaryAccent   = "#24cc14"
	SecondaryAccent = "#E91C23"
)

// TripCell is one trip as shown under its route.
type TripCell struct {
	Destination string                  `json:"destination"`
	Scheduled   string                  `json:"scheduled,omitempty"`
	Arrival     models.ProjectedArrival `json:"arrival"`
	BusType     string                  `json:"busType,omitempty"`
	LastTrip    bool                    `json:"lastTrip"`
}

// RouteBlock is one route with its trips in payload order.
type RouteBlock struct {
	Number      string     `json:"number"`
	Heading     string     `json:"heading"`
	Direction   string     `json:"direction,omitempty"`
	DirectionID int        `json:"directionId"`
	Primary     bool       `json:"primary"`
	Accent      string     `json:"accent"`
	Trips       []TripCell `json:"trips"`
}

// StopBlock is the stop header followed by its routes.
type StopBlock struct {
	Code        string       `json:"code"`
	Description string       `json:"description"`
	Routes      []RouteBlock `json:"routes"`
}

// RenderRoute projects every trip of route against now. primaryRoute picks
// the route number drawn with the primary accent.
func RenderRoute(route models.Route, now clock.WallTime, primaryRoute string) RouteBlock {
	primary := route.Number == primaryRoute
	accent := SecondaryAccent
	if primary {
		accent = PrimaryAccent
	}

	cells := make([]TripCell, 0, len(route.Trips))
	for _, trip := range route.Trips {
		scheduled, _ := schedule.NormalizeStartTime(trip.ScheduledStartTime)
		cells = append(cells, TripCell{
			Destination: trip.Destination,
			Scheduled:   scheduled,
			Arrival:     schedule.Project(trip, now),
			BusType:     trip.BusType,
			LastTrip:    trip.LastTripOfSchedule,
		})
	}

	return RouteBlock{
		Number:      route.Number,
		Heading:     route.Heading,
		Direction:   route.Direction,
		DirectionID: route.DirectionID,
		Primary:     primary,
		Accent:      accent,
		Trips:       cells,
	}
}

// RenderStop renders the stop header and one block per route. Routes are
// neither sorted nor deduplicated. A nil stop renders as an empty block.
func RenderStop(stop *models.Stop, now clock.WallTime, primaryRoute string) StopBlock {
	if stop == nil {
		return StopBlock{Routes: []RouteBlock{}}
	}

	routes := make([]RouteBlock, 0, len(stop.Routes))
	for _, r := range stop.Routes {
		routes = append(routes, RenderRoute(r, now, primaryRoute))
	}

	return StopBlock{
		Code:        stop.Code,
		Description: stop.Description,
		Routes:      routes,
	}
}
