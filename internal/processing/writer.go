package processing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jengzang/taxi-trips-backend-go/internal/models"
)

// Derived output columns.
const (
	ColTripDistanceKm = "trip_distance_km"
	ColAvgSpeedKph    = "avg_speed_kph"
	ColPickupHour     = "pickup_hour"
)

var cleanedColumns = []string{
	ColID, ColPickupDatetime, ColDropoffDatetime,
	ColPickupLatitude, ColPickupLongitude,
	ColDropoffLatitude, ColDropoffLongitude,
	ColPassengerCount, ColTripDuration,
	ColTripDistanceKm, ColAvgSpeedKph, ColPickupHour,
}

// WriteCleaned drains stream into dst as CSV: the recognized columns with
// normalized values, then the derived columns, then any extra input columns
// that a derived column does not overwrite.
func WriteCleaned(dst io.Writer, stream *Stream) (Summary, error) {
	w := csv.NewWriter(dst)

	var extras []string
	headerWritten := false
	writeHeader := func() error {
		headerWritten = true
		derived := map[string]bool{}
		for _, c := range cleanedColumns {
			derived[c] = true
		}
		for _, name := range stream.ExtraColumns() {
			if !derived[name] {
				extras = append(extras, name)
			}
		}
		return w.Write(append(append([]string{}, cleanedColumns...), extras...))
	}

	record := make([]string, 0, len(cleanedColumns))
	for trip := range stream.All() {
		if !headerWritten {
			if err := writeHeader(); err != nil {
				return stream.Summary(), fmt.Errorf("write cleaned header: %w", err)
			}
		}
		record = appendTripRecord(record[:0], trip)
		for _, name := range extras {
			record = append(record, trip.Extra[name])
		}
		if err := w.Write(record); err != nil {
			return stream.Summary(), fmt.Errorf("write cleaned trip %s: %w", trip.ID, err)
		}
	}
	if err := stream.Err(); err != nil {
		w.Flush()
		return stream.Summary(), err
	}
	if !headerWritten && stream.Header() != nil {
		if err := writeHeader(); err != nil {
			return stream.Summary(), fmt.Errorf("write cleaned header: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return stream.Summary(), fmt.Errorf("flush cleaned csv: %w", err)
	}
	return stream.Summary(), nil
}

func appendTripRecord(record []string, t models.Trip) []string {
	speed := ""
	if t.AvgSpeedKph != nil {
		speed = formatFloat(*t.AvgSpeedKph)
	}
	return append(record,
		t.ID,
		t.PickupDatetime,
		t.DropoffDatetime,
		formatFloat(t.PickupLatitude),
		formatFloat(t.PickupLongitude),
		formatFloat(t.DropoffLatitude),
		formatFloat(t.DropoffLongitude),
		strconv.Itoa(t.PassengerCount),
		strconv.Itoa(t.TripDuration),
		formatFloat(t.TripDistanceKm),
		speed,
		strconv.Itoa(t.PickupHour),
	)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
