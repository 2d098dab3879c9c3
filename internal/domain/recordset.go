package domain

import (
	"strconv"
	"sync"
	"time"
)

// Columns is the fixed output schema, in order. Every row renders every
// column; absent optionals become empty cells, never elided columns.
var Columns = []string{
	"station_urn",
	"lon",
	"lat",
	"shortName",
	"longName",
	"wmoID",
	"platformType",
	"parentNetwork",
	"sponsor",
	"webpage_url",
	"operatorSector",
	"operator_org",
	"operator_country",
	"operator_url",
	"publisher",
	"publisher_org",
	"publisher_url",
	"starting",
	"ending",
	"starting_isostr",
	"ending_isostr",
	"parameter_uris",
	"parameters",
	"harvested_at",
}

// RecordSet accumulates one StationRecord per station URN in the order
// stations were processed. Add is the single serialization point of the
// harvest: parallel producers append under one mutex so that duplicate-URN
// detection and ordered accumulation stay race-free.
type RecordSet struct {
	mu      sync.Mutex
	records []StationRecord
	byURN   map[string]int
}

// NewRecordSet creates an empty record set.
func NewRecordSet() *RecordSet {
	return &RecordSet{byURN: make(map[string]int)}
}

// Add appends a record. Two records with the same station URN are a fatal
// error for the whole harvest, never silently merged or dropped.
func (rs *RecordSet) Add(rec StationRecord) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, exists := rs.byURN[rec.StationURN]; exists {
		return &DuplicateStationError{StationURN: rec.StationURN}
	}
	rs.byURN[rec.StationURN] = len(rs.records)
	rs.records = append(rs.records, rec)
	return nil
}

// Len returns the number of assembled records.
func (rs *RecordSet) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.records)
}

// Records returns the assembled rows in processing order.
func (rs *RecordSet) Records() []StationRecord {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	out := make([]StationRecord, len(rs.records))
	copy(out, rs.records)
	return out
}

// Lookup returns the record for a station URN.
func (rs *RecordSet) Lookup(stationURN string) (StationRecord, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	i, ok := rs.byURN[stationURN]
	if !ok {
		return StationRecord{}, false
	}
	return rs.records[i], true
}

// Row renders a record as string cells matching Columns. Nil optionals
// become empty cells.
func Row(rec StationRecord) []string {
	return []string{
		rec.StationURN,
		strconv.FormatFloat(rec.Lon, 'f', -1, 64),
		strconv.FormatFloat(rec.Lat, 'f', -1, 64),
		deref(rec.ShortName),
		deref(rec.LongName),
		deref(rec.WMOID),
		deref(rec.PlatformType),
		deref(rec.ParentNetwork),
		deref(rec.Sponsor),
		deref(rec.WebpageURL),
		deref(rec.OperatorSector),
		deref(rec.OperatorOrg),
		deref(rec.OperatorCountry),
		deref(rec.OperatorURL),
		deref(rec.Publisher),
		deref(rec.PublisherOrg),
		deref(rec.PublisherURL),
		rec.Starting.Format(time.RFC3339),
		rec.Ending.Format(time.RFC3339),
		rec.StartingISO,
		rec.EndingISO,
		rec.ParameterURIs,
		rec.ParameterNames,
		rec.HarvestedAt.Format(time.RFC3339),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
