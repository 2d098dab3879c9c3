package domain

import (
	"strings"
	"time"
)

// listDelimiter joins the parallel parameter URI/name lists. Values are not
// escaped; a comma inside a value would corrupt the join.
const listDelimiter = ","

// Required contact roles. A station without either is rejected.
const (
	RoleOperator  = "operator"
	RolePublisher = "publisher"
)

// BuildStationRecord folds a parsed StationDescription into the canonical
// flat record for one station. It requires operator and publisher contacts,
// derives the ISO-8601 string forms of the temporal extent, and joins the
// output parameter lists in document order.
func BuildStationRecord(stationURN string, desc StationDescription) (StationRecord, error) {
	operator, ok := desc.Contacts[RoleOperator]
	if !ok {
		return StationRecord{}, &MissingFieldError{StationURN: stationURN, Field: "contact role " + RoleOperator}
	}
	publisher, ok := desc.Contacts[RolePublisher]
	if !ok {
		return StationRecord{}, &MissingFieldError{StationURN: stationURN, Field: "contact role " + RolePublisher}
	}

	uris := make([]string, len(desc.Parameters))
	names := make([]string, len(desc.Parameters))
	for i, p := range desc.Parameters {
		uris[i] = p.DefinitionURI
		names[i] = p.Name
	}

	return StationRecord{
		StationURN: stationURN,
		Lon:        desc.Lon,
		Lat:        desc.Lat,

		ShortName: desc.ShortName,
		LongName:  desc.LongName,
		WMOID:     desc.WMOID,

		PlatformType:  desc.PlatformType,
		ParentNetwork: desc.ParentNetwork,
		Sponsor:       desc.Sponsor,
		WebpageURL:    desc.WebpageURL,

		OperatorSector:  desc.OperatorSector,
		OperatorOrg:     operator.Organization,
		OperatorCountry: operator.Country,
		OperatorURL:     operator.URL,

		Publisher:    desc.Publisher,
		PublisherOrg: publisher.Organization,
		PublisherURL: publisher.URL,

		Starting:    desc.Starting,
		Ending:      desc.Ending,
		StartingISO: desc.Starting.Format(time.RFC3339),
		EndingISO:   desc.Ending.Format(time.RFC3339),

		ParameterURIs:  strings.Join(uris, listDelimiter),
		ParameterNames: strings.Join(names, listDelimiter),

		HarvestedAt: clock.Now().UTC(),
	}, nil
}
