// Package domain models IOOS SOS station metadata.
//
// # Data Source
//
// Station metadata originates from Sensor Observation Service (SOS) endpoints
// following the IOOS SensorML 1.0.1 profile. Each station (identified by a
// URN such as "urn:ioos:station:wmo:41001") publishes a SensorML document via
// the DescribeSensor operation. The harvester flattens one document into one
// StationRecord.
//
// # Multiplicity Policies
//
// SensorML allows repetition that the flat record schema cannot express. The
// reductions below are deliberate, documented policies carried over from the
// upstream harvester, not defects to be fixed:
//
//   - Identifiers/classifiers: a station may declare more than one term with
//     the same ontology definition; the FIRST one in document order is kept.
//   - Contacts: keyed by the last path segment of their xlink:role URI; when
//     two contacts share a role the LATER one silently overwrites the earlier.
//   - Documentation: only the first member of the first DocumentList is read;
//     its online resource becomes the station webpage URL.
//
// Note the asymmetry (first-wins for classifiers, last-wins for contacts).
// Both match the original harvester and both are covered by tests.
//
// # Coordinate Order
//
// The gml:pos element carries "lat lon" — latitude first, then longitude.
// This is opposite to the lon-lat convention used by most geo APIs and is
// preserved exactly: the first token is always latitude, regardless of
// geographic plausibility.
//
// # Null Handling
//
// Optional fields are pointers. A nil pointer means the document did not
// declare the field; a pointer to "" means it was declared empty. Exports
// render nil as an explicit empty cell, never dropping the column.
package domain
