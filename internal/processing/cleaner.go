// Package processing turns raw trip CSV into validated, enriched trips.
package processing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jengzang/taxi-trips-backend-go/internal/models"
	"github.com/jengzang/taxi-trips-backend-go/internal/spatial"
	"github.com/jengzang/taxi-trips-backend-go/internal/temporal"
)

// Reason names the first validation rule a row failed. Kept rows have no reason.
type Reason string

const (
	ReasonInvalidPickupDatetime  Reason = "invalid_pickup_datetime"
	ReasonInvalidDropoffDatetime Reason = "invalid_dropoff_datetime"
	ReasonInvalidCoordinates     Reason = "invalid_coordinates"
	ReasonInvalidDuration        Reason = "invalid_duration"
	ReasonInvalidPassengerCount  Reason = "invalid_passenger_count"
)

// Trip duration bounds in seconds, both exclusive.
const (
	MinTripDuration = 30
	MaxTripDuration = 10800
)

// DefaultProgressEvery is how many rows pass between progress log lines.
const DefaultProgressEvery = 10000

// Recognized input columns, in output order.
const (
	ColID               = "id"
	ColPickupDatetime   = "pickup_datetime"
	ColDropoffDatetime  = "dropoff_datetime"
	ColPickupLatitude   = "pickup_latitude"
	ColPickupLongitude  = "pickup_longitude"
	ColDropoffLatitude  = "dropoff_latitude"
	ColDropoffLongitude = "dropoff_longitude"
	ColPassengerCount   = "passenger_count"
	ColTripDuration     = "trip_duration"
)

var knownColumns = map[string]bool{
	ColID: true, ColPickupDatetime: true, ColDropoffDatetime: true,
	ColPickupLatitude: true, ColPickupLongitude: true,
	ColDropoffLatitude: true, ColDropoffLongitude: true,
	ColPassengerCount: true, ColTripDuration: true,
}

// Summary holds the counters of one pass. Kept + Excluded == Total.
type Summary struct {
	Total    int64            `json:"total"`
	Kept     int64            `json:"kept"`
	Excluded int64            `json:"excluded"`
	Reasons  map[string]int64 `json:"reasons"`
}

// Options configures a Cleaner.
type Options struct {
	// Location is used for timestamps without an offset. Nil means UTC.
	Location *time.Location
	// ProgressEvery controls progress logging; <= 0 means DefaultProgressEvery.
	ProgressEvery int
	// OnRow, if set, is called once per data row with its exclusion reason
	// (empty for kept rows).
	OnRow func(Reason)
}

// Cleaner validates and enriches trip rows.
type Cleaner struct {
	log           zerolog.Logger
	normalizer    *temporal.Normalizer
	progressEvery int64
	onRow         func(Reason)
}

// NewCleaner creates a new cleaner
func NewCleaner(log zerolog.Logger, opts Options) *Cleaner {
	every := opts.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}
	return &Cleaner{
		log:           log.With().Str("component", "cleaner").Logger(),
		normalizer:    temporal.NewNormalizer(opts.Location),
		progressEvery: int64(every),
		onRow:         opts.OnRow,
	}
}

// Clean starts a single pass over r. Rows are read only as the returned
// Stream is advanced, so memory use does not grow with the input size.
func (c *Cleaner) Clean(r io.Reader) *Stream {
	hasher := xxh3.New()
	decoded := transform.NewReader(io.TeeReader(r, hasher),
		unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	return &Stream{
		cleaner: c,
		reader:  cr,
		hasher:  hasher,
		summary: Summary{Reasons: make(map[string]int64)},
	}
}

// Evaluate validates one row and, when every rule passes, returns the
// enriched trip. Otherwise it returns the first failing reason.
func (c *Cleaner) Evaluate(row models.RawTripRow) (models.Trip, Reason) {
	pickup, ok := c.normalizer.Normalize(row.PickupDatetime)
	if !ok {
		return models.Trip{}, ReasonInvalidPickupDatetime
	}
	dropoff, ok := c.normalizer.Normalize(row.DropoffDatetime)
	if !ok {
		return models.Trip{}, ReasonInvalidDropoffDatetime
	}

	if !spatial.IsValidCoordinate(parseFloat(row.PickupLatitude), parseFloat(row.PickupLongitude)) ||
		!spatial.IsValidCoordinate(parseFloat(row.DropoffLatitude), parseFloat(row.DropoffLongitude)) {
		return models.Trip{}, ReasonInvalidCoordinates
	}

	duration := math.Trunc(parseFloat(row.TripDuration))
	if math.IsNaN(duration) || duration <= MinTripDuration || duration >= MaxTripDuration {
		return models.Trip{}, ReasonInvalidDuration
	}

	if strings.TrimSpace(row.PassengerCount) == "" || parseInt(row.PassengerCount) <= 0 {
		return models.Trip{}, ReasonInvalidPassengerCount
	}

	row.PickupDatetime = pickup
	row.DropoffDatetime = dropoff
	return DeriveFeatures(row), ""
}

// Stream is a finite, single-use sequence of kept trips.
//
//	for s.Next() {
//		trip := s.Trip()
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	cleaner *Cleaner
	reader  *csv.Reader
	hasher  *xxh3.Hasher

	header  []string
	columns map[string]int
	extras  []int

	line    int
	current models.Trip
	summary Summary
	started bool
	done    bool
	err     error
}

// Next advances to the next kept trip. It returns false at end of input or
// on a fatal read error; Err distinguishes the two.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	if !s.started {
		s.started = true
		if !s.readHeader() {
			return false
		}
	}

	for {
		record, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			s.finish()
			return false
		}
		if err != nil {
			s.fail(fmt.Errorf("read trip record after line %d: %w", s.line, err))
			return false
		}
		s.line, _ = s.reader.FieldPos(0)

		row := s.rawRow(record)
		trip, reason := s.cleaner.Evaluate(row)

		s.summary.Total++
		if s.cleaner.onRow != nil {
			s.cleaner.onRow(reason)
		}
		if reason != "" {
			s.summary.Excluded++
			s.summary.Reasons[string(reason)]++
			s.cleaner.log.Debug().
				Str("id", row.ID).
				Str("reason", string(reason)).
				Int("line", s.line).
				Msg("Excluded row")
			s.progress()
			continue
		}

		s.summary.Kept++
		s.progress()
		s.current = trip
		return true
	}
}

// Trip returns the trip produced by the last successful Next.
func (s *Stream) Trip() models.Trip {
	return s.current
}

// Err returns the fatal error that stopped the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Summary returns the counters accumulated so far. After Next has returned
// false they are final.
func (s *Stream) Summary() Summary {
	out := s.summary
	out.Reasons = make(map[string]int64, len(s.summary.Reasons))
	for k, v := range s.summary.Reasons {
		out.Reasons[k] = v
	}
	return out
}

// Checksum returns the xxh3 fingerprint of the bytes read so far, in hex.
// After a clean end of stream it covers the whole input.
func (s *Stream) Checksum() string {
	return fmt.Sprintf("%016x", s.hasher.Sum64())
}

// Header returns the trimmed header row, or nil before the first Next.
func (s *Stream) Header() []string {
	return s.header
}

// ExtraColumns returns the header names the cleaner does not recognize,
// in file order.
func (s *Stream) ExtraColumns() []string {
	names := make([]string, 0, len(s.extras))
	for _, i := range s.extras {
		names = append(names, s.header[i])
	}
	return names
}

// All ranges over the remaining trips. Check Err after the loop.
func (s *Stream) All() iter.Seq[models.Trip] {
	return func(yield func(models.Trip) bool) {
		for s.Next() {
			if !yield(s.Trip()) {
				return
			}
		}
	}
}

func (s *Stream) readHeader() bool {
	record, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		s.finish()
		return false
	}
	if err != nil {
		s.fail(fmt.Errorf("read trip csv header: %w", err))
		return false
	}
	s.line = 1

	s.header = make([]string, len(record))
	s.columns = make(map[string]int, len(record))
	for i, name := range record {
		name = strings.TrimSpace(name)
		s.header[i] = name
		if _, dup := s.columns[name]; !dup {
			s.columns[name] = i
		}
		if !knownColumns[name] {
			s.extras = append(s.extras, i)
		}
	}
	return true
}

func (s *Stream) rawRow(record []string) models.RawTripRow {
	field := func(name string) string {
		i, ok := s.columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	row := models.RawTripRow{
		ID:               strings.TrimSpace(field(ColID)),
		PickupDatetime:   field(ColPickupDatetime),
		DropoffDatetime:  field(ColDropoffDatetime),
		PickupLatitude:   field(ColPickupLatitude),
		PickupLongitude:  field(ColPickupLongitude),
		DropoffLatitude:  field(ColDropoffLatitude),
		DropoffLongitude: field(ColDropoffLongitude),
		PassengerCount:   field(ColPassengerCount),
		TripDuration:     field(ColTripDuration),
	}
	if len(s.extras) > 0 {
		row.Extra = make(map[string]string, len(s.extras))
		for _, i := range s.extras {
			v := ""
			if i < len(record) {
				v = record[i]
			}
			row.Extra[s.header[i]] = v
		}
	}
	return row
}

func (s *Stream) progress() {
	if s.summary.Total%s.cleaner.progressEvery != 0 {
		return
	}
	s.cleaner.log.Info().
		Int64("processed", s.summary.Total).
		Int64("kept", s.summary.Kept).
		Int64("excluded", s.summary.Excluded).
		Msg("Cleaning progress")
}

func (s *Stream) finish() {
	s.done = true
	s.cleaner.log.Info().
		Int64("total", s.summary.Total).
		Int64("kept", s.summary.Kept).
		Int64("excluded", s.summary.Excluded).
		Interface("reasons", s.summary.Reasons).
		Msg("Cleaning complete")
}

func (s *Stream) fail(err error) {
	s.done = true
	s.err = err
	s.cleaner.log.Error().Err(err).
		Int64("total", s.summary.Total).
		Msg("Cleaning aborted")
}
