package octranspo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RouteSummaryResponse is the body of GetNextTripsForStopAllRoutes.
type RouteSummaryResponse struct {
	Result RouteSummary `json:"GetRouteSummaryForStopResult"`
}

type RouteSummary struct {
	StopNo          FlexString `json:"StopNo"`
	StopDescription FlexString `json:"StopDescription"`
	Error           FlexString `json:"Error"`
	Routes          RouteList  `json:"Routes"`
}

// RouteList is the "Routes" object. Error responses send an empty array or
// string instead, and some feeds send the routes array directly.
type RouteList struct {
	Route OneOrMany[Route] `json:"Route"`
}

func (l *RouteList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Route OneOrMany[Route] `json:"Route"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		l.Route = wrapped.Route
		return nil
	}
	return l.Route.UnmarshalJSON(data)
}

type Route struct {
	RouteNo      FlexString `json:"RouteNo"`
	RouteHeading FlexString `json:"RouteHeading"`
	DirectionID  FlexInt    `json:"DirectionID"`
	Direction    FlexString `json:"Direction"`
	Trips        TripList   `json:"Trips"`
}

type Trip struct {
	Longitude            FlexString `json:"Longitude"`
	Latitude             FlexString `json:"Latitude"`
	GPSSpeed             FlexString `json:"GPSSpeed"`
	TripDestination      FlexString `json:"TripDestination"`
	TripStartTime        FlexString `json:"TripStartTime"`
	AdjustedScheduleTime FlexString `json:"AdjustedScheduleTime"`
	AdjustmentAge        FlexString `json:"AdjustmentAge"`
	LastTripOfSchedule   FlexBool   `json:"LastTripOfSchedule"`
	BusType              FlexString `json:"BusType"`
}

// FlexString accepts a JSON string, a number (kept as its literal text) or
// null. Anything else decodes to "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*s = FlexString(data)
	default:
		*s = ""
	}
	return nil
}

// FlexInt accepts a JSON number or a numeric string. Missing, empty or
// non-numeric values decode to zero.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var s FlexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		*n = 0
		return nil
	}
	*n = FlexInt(v)
	return nil
}

// FlexBool accepts true/false or their string forms. Anything else is false.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		*b = FlexBool(err == nil && parsed)
		return nil
	}
	*b = FlexBool(bytes.Equal(data, []byte("true")))
	return nil
}

// OneOrMany decodes either a JSON array or a single object into a slice.
// The upstream API collapses one-element lists into a bare object.
type OneOrMany[T any] []T

func (m *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*m = nil
		return nil
	}

	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*m = items
	case '{':
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return err
		}
		*m = []T{item}
	case 'n', '"':
		*m = nil
	default:
		return fmt.Errorf("expected object or array, got %q", truncate(data, 16))
	}
	return nil
}

// TripList decodes the three shapes seen for a route's trips: a bare array,
// an object wrapping them under "Trip", or a single trip object.
type TripList []Trip

func (l *TripList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if len(obj) == 0 {
			*l = nil
			return nil
		}
		if raw, ok := obj["Trip"]; ok {
			var trips OneOrMany[Trip]
			if err := trips.UnmarshalJSON(raw); err != nil {
				return err
			}
			*l = TripList(trips)
			return nil
		}
	}

	var trips OneOrMany[Trip]
	if err := trips.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = TripList(trips)
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
