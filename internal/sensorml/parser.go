package sensorml

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/couchcryptid/sos-station-harvester/internal/domain"
)

// IOOSOntology is the base URI qualifying identifier and classifier names in
// the IOOS 1.0 SOS profile.
const IOOSOntology = "http://mmisw.org/ont/ioos/definition"

// Term categories accepted by Definition.
const (
	CategoryIdentifier = "identifier"
	CategoryClassifier = "classifier"
)

// Parser extracts a StationDescription from one SensorML document. It holds
// only the immutable namespace table, so a single Parser is safe for
// concurrent use across stations.
type Parser struct {
	ns Namespaces
}

// NewParser creates a parser using the given namespace table.
func NewParser(ns Namespaces) *Parser {
	return &Parser{ns: ns}
}

// Parse reads a raw SensorML payload and extracts the station description.
// A payload that is not well-formed XML yields a MalformedDocumentError.
func (p *Parser) Parse(stationURN string, payload []byte) (domain.StationDescription, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(payload); err != nil {
		return domain.StationDescription{}, &domain.MalformedDocumentError{StationURN: stationURN, Err: err}
	}
	return p.ParseDocument(stationURN, doc)
}

// ParseDocument extracts the station description from a parsed document
// tree. Only the first sml:member is consulted and it must hold the
// sml:System; later members never stand in for it.
func (p *Parser) ParseDocument(stationURN string, doc *etree.Document) (domain.StationDescription, error) {
	root := doc.Root()
	if root == nil {
		return domain.StationDescription{}, &domain.MalformedDocumentError{
			StationURN: stationURN, Err: errors.New("document has no root element"),
		}
	}
	member := p.ns.findFirst(root, "sml:member")
	if member == nil {
		return domain.StationDescription{}, &domain.MalformedDocumentError{
			StationURN: stationURN, Err: errors.New("no sml:member element"),
		}
	}
	system := p.ns.findFirst(member, "sml:System")
	if system == nil {
		return domain.StationDescription{}, &domain.MalformedDocumentError{
			StationURN: stationURN, Err: errors.New("first sml:member has no sml:System"),
		}
	}

	desc := domain.StationDescription{Contacts: make(map[string]domain.Contact)}

	if err := p.parsePosition(stationURN, system, &desc); err != nil {
		return domain.StationDescription{}, err
	}

	desc.ShortName = p.Definition(system, CategoryIdentifier, "shortName", IOOSOntology)
	desc.LongName = p.Definition(system, CategoryIdentifier, "longName", IOOSOntology)
	desc.WMOID = p.Definition(system, CategoryIdentifier, "wmoID", IOOSOntology)
	desc.PlatformType = p.Definition(system, CategoryClassifier, "platformType", IOOSOntology)
	desc.ParentNetwork = p.Definition(system, CategoryClassifier, "parentNetwork", IOOSOntology)
	desc.Sponsor = p.Definition(system, CategoryClassifier, "sponsor", IOOSOntology)
	desc.OperatorSector = p.Definition(system, CategoryClassifier, "operatorSector", IOOSOntology)
	desc.Publisher = p.Definition(system, CategoryClassifier, "publisher", IOOSOntology)

	desc.WebpageURL = p.parseDocumentation(system)

	if err := p.parseContacts(stationURN, system, desc.Contacts); err != nil {
		return domain.StationDescription{}, err
	}

	params, err := p.parseOutputs(stationURN, system)
	if err != nil {
		return domain.StationDescription{}, err
	}
	desc.Parameters = params

	if err := p.parseValidTime(stationURN, system, &desc); err != nil {
		return domain.StationDescription{}, err
	}

	return desc, nil
}

// Definition looks up the value of the identifier or classifier whose
// sml:Term definition attribute equals ontology + "/" + key. When a station
// declares more than one term with the same definition, the first one in
// document order wins; later terms of the same type are ignored.
func (p *Parser) Definition(system *etree.Element, category, key, ontology string) *string {
	var listPath string
	switch category {
	case CategoryIdentifier:
		listPath = "sml:identification/sml:IdentifierList/sml:identifier"
	case CategoryClassifier:
		listPath = "sml:classification/sml:ClassifierList/sml:classifier"
	default:
		return nil
	}

	want := ontology + "/" + key
	for _, el := range p.ns.findAll(system, listPath) {
		term := p.ns.findFirst(el, "sml:Term")
		if term == nil {
			continue
		}
		if def, ok := p.ns.attr(term, "definition"); !ok || def != want {
			continue
		}
		if v := p.ns.findFirst(term, "sml:value"); v != nil {
			s := strings.TrimSpace(v.Text())
			return &s
		}
	}
	return nil
}

// parsePosition reads gml:pos under the system's location. The element
// carries two space-separated tokens in "lat lon" source order; that order
// is preserved as-is (see the domain package doc).
func (p *Parser) parsePosition(stationURN string, system *etree.Element, desc *domain.StationDescription) error {
	pos := p.ns.findFirst(system, "sml:location/gml:Point/gml:pos")
	if pos == nil {
		return &domain.MissingFieldError{StationURN: stationURN, Field: "position"}
	}

	tokens := strings.Fields(pos.Text())
	if len(tokens) < 2 {
		return &domain.MalformedDocumentError{
			StationURN: stationURN,
			Err:        fmt.Errorf("gml:pos %q does not hold two coordinate tokens", pos.Text()),
		}
	}
	lat, errLat := strconv.ParseFloat(tokens[0], 64)
	lon, errLon := strconv.ParseFloat(tokens[1], 64)
	if errLat != nil || errLon != nil {
		return &domain.MalformedDocumentError{
			StationURN: stationURN,
			Err:        fmt.Errorf("gml:pos %q is not numeric", pos.Text()),
		}
	}
	desc.Lat = lat
	desc.Lon = lon
	return nil
}

// parseDocumentation returns the online resource of the first member of the
// first DocumentList, or nil. Additional lists and members are ignored.
// Absence is not an error.
func (p *Parser) parseDocumentation(system *etree.Element) *string {
	members := p.ns.findAll(system, "sml:documentation/sml:DocumentList/sml:member")
	if len(members) == 0 {
		return nil
	}
	res := p.ns.findFirst(members[0], "sml:Document/sml:onlineResource")
	if res == nil {
		return nil
	}
	if href, ok := p.ns.attr(res, "xlink:href"); ok {
		return &href
	}
	return nil
}

// parseContacts fills the role-keyed contact map. The role key is the last
// path segment of the member's xlink:role URI. A later contact with the same
// role overwrites the earlier one.
func (p *Parser) parseContacts(stationURN string, system *etree.Element, contacts map[string]domain.Contact) error {
	for _, member := range p.ns.findAll(system, "sml:contact/sml:ContactList/sml:member") {
		role, ok := p.ns.attr(member, "xlink:role")
		if !ok || role == "" {
			return &domain.MissingFieldError{StationURN: stationURN, Field: "contact xlink:role"}
		}
		contact := domain.Contact{Role: lastSegment(role)}

		if party := p.ns.findFirst(member, "sml:ResponsibleParty"); party != nil {
			contact.Organization = p.textOf(party, "sml:organizationName")
			contact.Country = p.textOf(party, "sml:contactInfo/sml:address/sml:country")
			if res := p.ns.findFirst(party, "sml:contactInfo/sml:onlineResource"); res != nil {
				if href, ok := p.ns.attr(res, "xlink:href"); ok {
					contact.URL = &href
				}
			}
		}
		contacts[contact.Role] = contact
	}
	return nil
}

// parseOutputs collects every swe:Quantity under the outputs list in
// document order. The definition attribute is required on each one.
func (p *Parser) parseOutputs(stationURN string, system *etree.Element) ([]domain.OutputParameter, error) {
	quantities := p.ns.findAll(system, "sml:outputs/sml:OutputList/sml:output/swe:Quantity")
	params := make([]domain.OutputParameter, 0, len(quantities))
	for _, q := range quantities {
		def, ok := p.ns.attr(q, "definition")
		if !ok || def == "" {
			return nil, &domain.MissingFieldError{StationURN: stationURN, Field: "output definition"}
		}
		params = append(params, domain.OutputParameter{
			DefinitionURI: def,
			Name:          lastSegment(def),
		})
	}
	return params, nil
}

// parseValidTime reads the station's valid-time period. Both positions must
// be present and parseable.
func (p *Parser) parseValidTime(stationURN string, system *etree.Element, desc *domain.StationDescription) error {
	starting, err := p.timePosition(stationURN, system, "sml:validTime/gml:TimePeriod/gml:beginPosition")
	if err != nil {
		return err
	}
	ending, err := p.timePosition(stationURN, system, "sml:validTime/gml:TimePeriod/gml:endPosition")
	if err != nil {
		return err
	}
	desc.Starting = starting
	desc.Ending = ending
	return nil
}

func (p *Parser) timePosition(stationURN string, system *etree.Element, path string) (time.Time, error) {
	el := p.ns.findFirst(system, path)
	if el == nil {
		return time.Time{}, &domain.MissingFieldError{StationURN: stationURN, Field: lastSegment(path)}
	}
	t, err := parseTimestamp(strings.TrimSpace(el.Text()))
	if err != nil {
		return time.Time{}, &domain.MalformedDocumentError{
			StationURN: stationURN,
			Err:        fmt.Errorf("%s: %w", lastSegment(path), err),
		}
	}
	return t, nil
}

// timestampLayouts are tried in order. Endpoints emit RFC3339; a few older
// ones omit the zone designator or publish bare dates.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// textOf returns trimmed element text at path, or nil if the element is
// absent. A present-but-empty element yields a pointer to "", keeping
// "declared empty" distinct from "missing".
func (p *Parser) textOf(el *etree.Element, path string) *string {
	found := p.ns.findFirst(el, path)
	if found == nil {
		return nil
	}
	s := strings.TrimSpace(found.Text())
	return &s
}

// lastSegment returns the part of a URI after the final slash, or the whole
// string when it has none.
func lastSegment(uri string) string {
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		return uri[i+1:]
	}
	return uri
}
