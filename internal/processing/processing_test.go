package processing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"

	"github.com/jengzang/taxi-trips-backend-go/internal/models"
)

const header = "id,vendor_id,pickup_datetime,dropoff_datetime,passenger_count,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,store_and_fwd_flag,trip_duration\n"

func csvRow(id, pickup, dropoff, passengers, duration string) string {
	return fmt.Sprintf("%s,2,%s,%s,%s,-73.98,40.75,-73.97,40.76,N,%s\n", id, pickup, dropoff, passengers, duration)
}

func newTestCleaner(opts Options) *Cleaner {
	return NewCleaner(zerolog.Nop(), opts)
}

func collect(t *testing.T, s *Stream) []models.Trip {
	t.Helper()
	var trips []models.Trip
	for trip := range s.All() {
		trips = append(trips, trip)
	}
	return trips
}

func TestDeriveFeatures(t *testing.T) {
	trip := DeriveFeatures(models.RawTripRow{
		ID:               "t1",
		PickupDatetime:   "2016-01-01T00:00:00.000Z",
		DropoffDatetime:  "2016-01-01T00:10:00.000Z",
		PickupLatitude:   "40.75",
		PickupLongitude:  "-73.98",
		DropoffLatitude:  "40.76",
		DropoffLongitude: "-73.97",
		PassengerCount:   "1",
		TripDuration:     "600",
	})

	assert.Equal(t, "t1", trip.ID)
	assert.InDelta(t, 1.4, trip.TripDistanceKm, 0.01)
	require.NotNil(t, trip.AvgSpeedKph)
	assert.InDelta(t, 8.4, *trip.AvgSpeedKph, 0.05)
	assert.Equal(t, 0, trip.PickupHour)
	assert.Equal(t, 1, trip.PassengerCount)
	assert.Equal(t, 600, trip.TripDuration)
}

func TestDeriveFeaturesNeverFails(t *testing.T) {
	trip := DeriveFeatures(models.RawTripRow{
		ID:              "bad",
		PickupDatetime:  "nonsense",
		PickupLatitude:  "north",
		PickupLongitude: "-73.98",
		TripDuration:    "0",
	})

	assert.True(t, math.IsNaN(trip.PickupLatitude))
	assert.True(t, math.IsNaN(trip.TripDistanceKm))
	assert.Nil(t, trip.AvgSpeedKph)
	assert.Equal(t, -1, trip.PickupHour)
	assert.Equal(t, 0, trip.PassengerCount)
}

func TestDeriveFeaturesNonPositiveDuration(t *testing.T) {
	trip := DeriveFeatures(models.RawTripRow{
		PickupDatetime:   "2016-01-01T13:00:00.000Z",
		PickupLatitude:   "40.75",
		PickupLongitude:  "-73.98",
		DropoffLatitude:  "40.75",
		DropoffLongitude: "-73.98",
		TripDuration:     "-5",
	})
	assert.Zero(t, trip.TripDistanceKm)
	assert.Nil(t, trip.AvgSpeedKph)
	assert.Equal(t, 13, trip.PickupHour)
}

func TestCleanKeepsValidRow(t *testing.T) {
	input := header + csvRow("t1", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600")

	s := newTestCleaner(Options{}).Clean(strings.NewReader(input))
	trips := collect(t, s)
	require.NoError(t, s.Err())
	require.Len(t, trips, 1)

	trip := trips[0]
	assert.Equal(t, "t1", trip.ID)
	assert.Equal(t, "2016-01-01T00:00:00.000Z", trip.PickupDatetime)
	assert.Equal(t, "2016-01-01T00:10:00.000Z", trip.DropoffDatetime)
	assert.InDelta(t, 1.4, trip.TripDistanceKm, 0.01)
	require.NotNil(t, trip.AvgSpeedKph)
	assert.InDelta(t, 8.4, *trip.AvgSpeedKph, 0.05)
	assert.Equal(t, 0, trip.PickupHour)
	assert.Equal(t, map[string]string{"vendor_id": "2", "store_and_fwd_flag": "N"}, trip.Extra)

	assert.Equal(t, Summary{Total: 1, Kept: 1, Excluded: 0, Reasons: map[string]int64{}}, s.Summary())
}

func TestCleanExclusionReasons(t *testing.T) {
	input := header +
		csvRow("ok", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600") +
		csvRow("short", "2016-01-01 00:00:00", "2016-01-01 00:00:20", "1", "20") +
		csvRow("at-floor", "2016-01-01 00:00:00", "2016-01-01 00:00:30", "1", "30") +
		csvRow("at-ceiling", "2016-01-01 00:00:00", "2016-01-01 03:00:00", "1", "10800") +
		csvRow("no-pickup", "", "2016-01-01 00:10:00", "1", "600") +
		csvRow("bad-dropoff", "2016-01-01 00:00:00", "soon", "1", "600") +
		csvRow("zero-pax", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "0", "600") +
		csvRow("empty-pax", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "", "600") +
		"far,2,2016-01-01 00:00:00,2016-01-01 00:10:00,1,-118.24,34.05,-73.97,40.76,N,600\n" +
		csvRow("both-bad", "garbage", "garbage", "0", "5")

	s := newTestCleaner(Options{}).Clean(strings.NewReader(input))
	trips := collect(t, s)
	require.NoError(t, s.Err())
	require.Len(t, trips, 1)
	assert.Equal(t, "ok", trips[0].ID)

	sum := s.Summary()
	assert.Equal(t, int64(10), sum.Total)
	assert.Equal(t, int64(1), sum.Kept)
	assert.Equal(t, int64(9), sum.Excluded)
	assert.Equal(t, sum.Total, sum.Kept+sum.Excluded)
	assert.Equal(t, map[string]int64{
		string(ReasonInvalidDuration):        3,
		string(ReasonInvalidPickupDatetime):  2,
		string(ReasonInvalidDropoffDatetime): 1,
		string(ReasonInvalidPassengerCount):  2,
		string(ReasonInvalidCoordinates):     1,
	}, sum.Reasons)
}

func TestCleanShortTripScenario(t *testing.T) {
	input := header + csvRow("t1", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "20")

	s := newTestCleaner(Options{}).Clean(strings.NewReader(input))
	assert.Empty(t, collect(t, s))
	require.NoError(t, s.Err())

	sum := s.Summary()
	assert.Equal(t, int64(1), sum.Excluded)
	assert.Equal(t, int64(0), sum.Kept)
	assert.Equal(t, int64(1), sum.Reasons[string(ReasonInvalidDuration)])
}

func TestCleanStripsBOMAndTrimsHeader(t *testing.T) {
	input := "\uFEFF id , pickup_datetime ,dropoff_datetime,pickup_latitude,pickup_longitude,dropoff_latitude,dropoff_longitude,passenger_count,trip_duration\n" +
		"a,2016-01-01 00:00:00,2016-01-01 00:10:00,40.75,-73.98,40.76,-73.97,2,600\n"

	s := newTestCleaner(Options{}).Clean(strings.NewReader(input))
	trips := collect(t, s)
	require.NoError(t, s.Err())
	require.Len(t, trips, 1)
	assert.Equal(t, "a", trips[0].ID)
	assert.Equal(t, 2, trips[0].PassengerCount)
	assert.Equal(t, "id", s.Header()[0])
	assert.Empty(t, s.ExtraColumns())
}

func TestCleanRaggedRowIsExcluded(t *testing.T) {
	input := header +
		"short-row,2,2016-01-01 00:00:00\n" +
		csvRow("ok", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600")

	s := newTestCleaner(Options{}).Clean(strings.NewReader(input))
	trips := collect(t, s)
	require.NoError(t, s.Err())
	require.Len(t, trips, 1)

	sum := s.Summary()
	assert.Equal(t, int64(2), sum.Total)
	assert.Equal(t, int64(1), sum.Reasons[string(ReasonInvalidDropoffDatetime)])
}

func TestCleanTokenizerErrorIsFatal(t *testing.T) {
	input := header +
		csvRow("ok", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600") +
		"bro\"ken,2,x,y,1,1,1,1,1,N,600\n" +
		csvRow("never", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600")

	s := newTestCleaner(Options{}).Clean(strings.NewReader(input))
	trips := collect(t, s)
	require.Len(t, trips, 1)

	err := s.Err()
	require.Error(t, err)
	var parseErr *csv.ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Contains(t, err.Error(), "after line 2")
	assert.False(t, s.Next())
	assert.Equal(t, int64(1), s.Summary().Total)
}

func TestCleanEmptyInput(t *testing.T) {
	s := newTestCleaner(Options{}).Clean(strings.NewReader(""))
	assert.False(t, s.Next())
	require.NoError(t, s.Err())
	assert.Equal(t, int64(0), s.Summary().Total)
	assert.Nil(t, s.Header())
}

func TestCleanHeaderOnly(t *testing.T) {
	s := newTestCleaner(Options{}).Clean(strings.NewReader(header))
	assert.Empty(t, collect(t, s))
	require.NoError(t, s.Err())
	assert.Len(t, s.Header(), 11)
}

func TestCleanChecksumCoversInput(t *testing.T) {
	input := header + csvRow("t1", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600")

	s := newTestCleaner(Options{}).Clean(strings.NewReader(input))
	collect(t, s)
	require.NoError(t, s.Err())
	assert.Equal(t, fmt.Sprintf("%016x", xxh3.HashString(input)), s.Checksum())
}

func TestCleanOnRowAndLocation(t *testing.T) {
	input := header +
		csvRow("a", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600") +
		csvRow("b", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "20")

	seen := map[Reason]int{}
	c := newTestCleaner(Options{
		Location: time.FixedZone("EST", -5*3600),
		OnRow:    func(r Reason) { seen[r]++ },
	})
	s := c.Clean(strings.NewReader(input))
	trips := collect(t, s)
	require.NoError(t, s.Err())
	require.Len(t, trips, 1)

	assert.Equal(t, "2016-01-01T05:00:00.000Z", trips[0].PickupDatetime)
	assert.Equal(t, 5, trips[0].PickupHour)
	assert.Equal(t, map[Reason]int{"": 1, ReasonInvalidDuration: 1}, seen)
}

func TestStreamAllStopsEarly(t *testing.T) {
	input := header +
		csvRow("a", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600") +
		csvRow("b", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "600")

	s := newTestCleaner(Options{}).Clean(strings.NewReader(input))
	for range s.All() {
		break
	}
	assert.Equal(t, int64(1), s.Summary().Total)

	// The stream resumes where the loop stopped.
	assert.True(t, s.Next())
	assert.Equal(t, "b", s.Trip().ID)
	assert.False(t, s.Next())
}

func TestWriteCleaned(t *testing.T) {
	input := "id,pickup_datetime,dropoff_datetime,pickup_latitude,pickup_longitude,dropoff_latitude,dropoff_longitude,passenger_count,trip_duration,vendor_id,pickup_hour\n" +
		"t1,2016-01-01 00:00:00,2016-01-01 00:10:00,40.75,-73.98,40.76,-73.97,1,600,2,99\n" +
		"t2,2016-01-01 00:00:00,2016-01-01 00:10:00,40.75,-73.98,40.76,-73.97,1,20,2,99\n"

	var buf bytes.Buffer
	sum, err := WriteCleaned(&buf, newTestCleaner(Options{}).Clean(strings.NewReader(input)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), sum.Total)
	assert.Equal(t, int64(1), sum.Kept)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, append(append([]string{}, cleanedColumns...), "vendor_id"), records[0])
	row := records[1]
	assert.Equal(t, "t1", row[0])
	assert.Equal(t, "2016-01-01T00:00:00.000Z", row[1])
	assert.Equal(t, "600", row[8])
	assert.Equal(t, "0", row[11], "derived pickup_hour overwrites the input column")
	assert.Equal(t, "2", row[12])
}

func TestWriteCleanedNoKeptRows(t *testing.T) {
	input := header + csvRow("t1", "2016-01-01 00:00:00", "2016-01-01 00:10:00", "1", "20")

	var buf bytes.Buffer
	sum, err := WriteCleaned(&buf, newTestCleaner(Options{}).Clean(strings.NewReader(input)))
	require.NoError(t, err)
	assert.Equal(t, int64(1), sum.Excluded)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"id", "pickup_datetime"}, records[0][:2])
	assert.Equal(t, []string{"vendor_id", "store_and_fwd_flag"}, records[0][len(cleanedColumns):])
}
