package board

import (
	"fmt"
	"io"

	"github.com/rodaine/table"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiDim   = "\x1b[2m"
)

// WriteText draws screen as plain text, one table per route. With color set,
// route headers use ANSI colours matching their accent.
func WriteText(w io.Writer, screen Screen, color bool) error {
	paint := func(code, s string) string {
		if !color {
			return s
		}
		return code + s + ansiReset
	}

	if _, err := fmt.Fprintf(w, "%s  %s\n", paint(ansiBold, screen.Title), screen.Clock); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s (%s)\n", screen.Stop.Description, screen.Stop.Code); err != nil {
		return err
	}

	switch {
	case screen.Placeholder:
		if _, err := fmt.Fprintln(w, paint(ansiDim, "showing sample data")); err != nil {
			return err
		}
	case screen.Stale:
		if _, err := fmt.Fprintln(w, paint(ansiDim, "last refresh failed, showing previous data")); err != nil {
			return err
		}
	}

	if len(screen.Stop.Routes) == 0 {
		_, err := fmt.Fprintln(w, "\nno routes")
		return err
	}

	for _, route := range screen.Stop.Routes {
		accent := ansiRed
		if route.Primary {
			accent = ansiGreen
		}
		if _, err := fmt.Fprintf(w, "\n%s %s\n", paint(ansiBold+accent, route.Number), route.Heading); err != nil {
			return err
		}

		if len(route.Trips) == 0 {
			if _, err := fmt.Fprintln(w, "  no upcoming trips"); err != nil {
				return err
			}
			continue
		}

		tbl := table.New("Destination", "Scheduled", "Arrives In", "At").WithWriter(w).WithPadding(2)
		if color {
			tbl.WithHeaderFormatter(func(format string, vals ...interface{}) string {
				return ansiBold + fmt.Sprintf(format, vals...) + ansiReset
			})
		}
		for _, trip := range route.Trips {
			tbl.AddRow(trip.Destination, trip.Scheduled, trip.Arrival.MinutesLabel, trip.Arrival.ClockTime)
		}
		tbl.Print()
	}

	return nil
}
