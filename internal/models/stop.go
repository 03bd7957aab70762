package models

import "strings"

// Stop is one transit stop and the routes serving it, decoded from a single
// schedule payload. A new payload always produces a new Stop.
type Stop struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Routes      []Route `json:"routes"`
}

// Route is a bus line serving the stop in one direction.
// Identity within a stop is (Number, DirectionID).
type Route struct {
	Number      string `json:"number"`
	Heading     string `json:"heading"`
	DirectionID int    `json:"directionId"`
	Direction   string `json:"direction,omitempty"`
	Trips       []Trip `json:"trips"`
}

// Trip is one upcoming arrival. Numeric-looking fields are kept as the raw
// upstream text; the projector parses them.
type Trip struct {
	Destination          string `json:"destination"`
	ScheduledStartTime   string `json:"scheduledStartTime"`
	AdjustedScheduleTime string `json:"adjustedScheduleTime"`
	AdjustmentAge        string `json:"adjustmentAge,omitempty"`
	Longitude            string `json:"longitude,omitempty"`
	Latitude             string `json:"latitude,omitempty"`
	GPSSpeed             string `json:"gpsSpeed,omitempty"`
	BusType              string `json:"busType,omitempty"`
	LastTripOfSchedule   bool   `json:"lastTripOfSchedule"`
}

// HasLiveGPSFix reports whether the estimate is backed by a vehicle position.
func (t Trip) HasLiveGPSFix() bool {
	return strings.TrimSpace(t.Longitude) != ""
}

// TripCount returns the number of trips across all routes.
func (s *Stop) TripCount() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, r := range s.Routes {
		n += len(r.Trips)
	}
	return n
}

// ProjectedArrival is a trip's display-ready arrival, computed at render time.
type ProjectedArrival struct {
	MinutesLabel string `json:"minutesLabel"`
	ClockTime    string `json:"clockTime"`
	Minutes      int    `json:"minutes"`
	Live         bool   `json:"live"`
	Unknown      bool   `json:"unknown"`
}
