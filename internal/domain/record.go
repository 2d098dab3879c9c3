package domain

import "time"

// Contact is one responsible party extracted from a SensorML ContactList
// member. Role is the last path segment of the member's xlink:role URI,
// e.g. "urn:ogc:def:classifiers:OGC:contactType:operator" -> "operator".
type Contact struct {
	Role         string
	Organization *string
	Country      *string
	URL          *string
}

// OutputParameter is one measured quantity declared by a station: the full
// definition URI and a short name derived from its final path segment.
type OutputParameter struct {
	DefinitionURI string
	Name          string
}

// StationDescription holds everything the parser extracts from one SensorML
// document, before the builder folds it into the flat record schema.
type StationDescription struct {
	// Lat and Lon come from gml:pos in "lat lon" source order.
	Lat float64
	Lon float64

	ShortName      *string
	LongName       *string
	WMOID          *string
	PlatformType   *string
	ParentNetwork  *string
	Sponsor        *string
	OperatorSector *string
	Publisher      *string

	// WebpageURL is the first document of the first DocumentList, if any.
	WebpageURL *string

	// Contacts is keyed by role; last contact with a given role wins.
	Contacts map[string]Contact

	Starting time.Time
	Ending   time.Time

	// Parameters preserves the document order of swe:Quantity outputs.
	Parameters []OutputParameter
}

// StationRecord is one row of the harvested station table. Records are
// immutable once built; the assembler only appends them.
type StationRecord struct {
	StationURN string  `json:"station_urn"`
	Lon        float64 `json:"lon"`
	Lat        float64 `json:"lat"`

	ShortName *string `json:"short_name"`
	LongName  *string `json:"long_name"`
	WMOID     *string `json:"wmo_id"`

	PlatformType  *string `json:"platform_type"`
	ParentNetwork *string `json:"parent_network"`
	Sponsor       *string `json:"sponsor"`
	WebpageURL    *string `json:"webpage_url"`

	OperatorSector  *string `json:"operator_sector"`
	OperatorOrg     *string `json:"operator_org"`
	OperatorCountry *string `json:"operator_country"`
	OperatorURL     *string `json:"operator_url"`

	Publisher    *string `json:"publisher"`
	PublisherOrg *string `json:"publisher_org"`
	PublisherURL *string `json:"publisher_url"`

	Starting    time.Time `json:"starting"`
	Ending      time.Time `json:"ending"`
	StartingISO string    `json:"starting_isostr"`
	EndingISO   string    `json:"ending_isostr"`

	// ParameterURIs and ParameterNames are comma-joined parallel lists,
	// same length and order. Values are not escaped; a comma inside a
	// definition URI would corrupt the join (known limitation).
	ParameterURIs  string `json:"parameter_uris"`
	ParameterNames string `json:"parameters"`

	HarvestedAt time.Time `json:"harvested_at"`
}
