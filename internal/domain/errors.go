package domain

import "fmt"

// MissingFieldError reports a required field absent from a station's
// SensorML document: position, temporal extent, a required contact role,
// or a quantity definition URI. Fatal for that station; never defaulted.
type MissingFieldError struct {
	StationURN string
	Field      string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("station %s: missing required field %q", e.StationURN, e.Field)
}

// MalformedDocumentError reports a document that does not parse as
// well-formed XML or lacks the expected SensorML structure.
type MalformedDocumentError struct {
	StationURN string
	Err        error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("station %s: malformed document: %v", e.StationURN, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// DuplicateStationError reports two records sharing a station URN. The
// assembler never merges or drops; the whole harvest fails.
type DuplicateStationError struct {
	StationURN string
}

func (e *DuplicateStationError) Error() string {
	return fmt.Sprintf("duplicate station key %q", e.StationURN)
}

// TransportError reports a failed or timed-out fetch from the SOS endpoint.
// Reported as-is; the core does not retry.
type TransportError struct {
	Op         string
	StationURN string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StationURN == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s for station %s: %v", e.Op, e.StationURN, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
