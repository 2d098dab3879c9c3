// Package sos implements the SOS 1.0 protocol client: GetCapabilities for
// station discovery and DescribeSensor for SensorML retrieval.
package sos

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/couchcryptid/sos-station-harvester/internal/domain"
)

// DescribeSensorFormat is the output format of the IOOS SensorML 1.0.1
// profile, requested on every DescribeSensor call.
const DescribeSensorFormat = `text/xml; subtype="sensorML/1.0.1/profiles/ioos_sos/1.0"`

// Client talks to one SOS endpoint. The request timeout is fixed at
// construction; its expiry surfaces as a TransportError for the affected
// station and is not retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an SOS client for the given endpoint.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ListStations issues GetCapabilities and returns the offering URNs that
// identify individual stations. Offerings with any colon-delimited component
// equal to "network" are composite sets, not stations, and are excluded.
func (c *Client) ListStations(ctx context.Context) ([]string, error) {
	params := url.Values{
		"service":        {"SOS"},
		"request":        {"GetCapabilities"},
		"acceptVersions": {"1.0.0"},
	}

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, &domain.TransportError{Op: "GetCapabilities", Err: err}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, &domain.TransportError{Op: "GetCapabilities", Err: fmt.Errorf("parse capabilities: %w", err)}
	}

	urns := offeringNames(doc)
	stations := make([]string, 0, len(urns))
	for _, urn := range urns {
		if isNetworkOffering(urn) {
			c.logger.Debug("excluding network offering", "urn", urn)
			continue
		}
		stations = append(stations, urn)
	}

	c.logger.Info("capabilities listed", "offerings", len(urns), "stations", len(stations))
	return stations, nil
}

// DescribeSensor fetches the raw SensorML payload for one station URN.
func (c *Client) DescribeSensor(ctx context.Context, stationURN string) ([]byte, error) {
	params := url.Values{
		"service":      {"SOS"},
		"request":      {"DescribeSensor"},
		"version":      {"1.0.0"},
		"procedure":    {stationURN},
		"outputFormat": {DescribeSensorFormat},
	}

	body, err := c.get(ctx, params)
	if err != nil {
		return nil, &domain.TransportError{Op: "DescribeSensor", StationURN: stationURN, Err: err}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, params url.Values) ([]byte, error) {
	requestURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if msg, ok := decodeExceptionReport(body); ok {
			return nil, fmt.Errorf("SOS exception (status %d): %s", resp.StatusCode, msg)
		}
		return nil, fmt.Errorf("SOS endpoint returned status %d: %s", resp.StatusCode, resp.Status)
	}

	// Some endpoints report exceptions with status 200.
	if msg, ok := decodeExceptionReport(body); ok {
		return nil, fmt.Errorf("SOS exception: %s", msg)
	}

	return body, nil
}

// offeringNames collects the gml:name of every observation offering in a
// capabilities document. Matching is by local name only: capabilities
// documents arrive in the ows/sos namespaces, which are outside the
// harvester's SensorML namespace table.
func offeringNames(doc *etree.Document) []string {
	var names []string
	root := doc.Root()
	if root == nil {
		return nil
	}
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		if el.Tag == "ObservationOffering" {
			for _, child := range el.ChildElements() {
				if child.Tag == "name" {
					if name := strings.TrimSpace(child.Text()); name != "" {
						names = append(names, name)
					}
					break
				}
			}
			return
		}
		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(root)
	return names
}

// isNetworkOffering reports whether any colon-delimited component of the
// offering URN equals "network", e.g. "urn:ioos:network:ism:all".
func isNetworkOffering(urn string) bool {
	for _, part := range strings.Split(urn, ":") {
		if part == "network" {
			return true
		}
	}
	return false
}

// decodeExceptionReport extracts the text of an OWS ExceptionReport payload.
func decodeExceptionReport(body []byte) (string, bool) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return "", false
	}
	root := doc.Root()
	if root == nil || root.Tag != "ExceptionReport" {
		return "", false
	}

	var msgs []string
	for _, exc := range root.ChildElements() {
		if exc.Tag != "Exception" {
			continue
		}
		code := exc.SelectAttrValue("exceptionCode", "unknown")
		hasText := false
		for _, txt := range exc.ChildElements() {
			if txt.Tag == "ExceptionText" {
				msgs = append(msgs, fmt.Sprintf("%s: %s", code, strings.TrimSpace(txt.Text())))
				hasText = true
			}
		}
		if !hasText {
			msgs = append(msgs, code)
		}
	}
	if len(msgs) == 0 {
		return "exception report with no detail", true
	}
	return strings.Join(msgs, "; "), true
}
