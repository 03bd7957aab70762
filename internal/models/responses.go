package models

import (
	"net/http"
	"time"

	"busboard/internal/clock"
)

// ResponseModel is the envelope every JSON endpoint answers with.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Data        any    `json:"data,omitempty"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

// ResponseCurrentTime returns the clock's time in Unix milliseconds.
func ResponseCurrentTime(c clock.Clock) int64 {
	return c.Now().UnixMilli()
}

func NewOKResponse(data any, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        http.StatusOK,
		CurrentTime: ResponseCurrentTime(c),
		Data:        data,
		Text:        "OK",
		Version:     2,
	}
}

func NewErrorResponse(code int, text string, c clock.Clock) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: ResponseCurrentTime(c),
		Text:        text,
		Version:     2,
	}
}

// CurrentTimeData is the payload of the current-time endpoint.
type CurrentTimeData struct {
	Time         int64  `json:"time"`
	ReadableTime string `json:"readableTime"`
	WallClock    string `json:"wallClock"`
}

// NewCurrentTimeData describes t, with the wall clock read in location.
func NewCurrentTimeData(t time.Time, location *time.Location) CurrentTimeData {
	return CurrentTimeData{
		Time:         t.UnixMilli(),
		ReadableTime: t.Format(time.RFC3339),
		WallClock:    clock.WallTimeOf(t, location).String(),
	}
}
