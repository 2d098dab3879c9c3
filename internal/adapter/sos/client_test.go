package sos_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/sos-station-harvester/internal/adapter/sos"
	"github.com/couchcryptid/sos-station-harvester/internal/domain"
)

const capabilitiesDoc = `<?xml version="1.0" encoding="UTF-8"?>
<sos:Capabilities version="1.0.0"
  xmlns:sos="http://www.opengis.net/sos/1.0"
  xmlns:gml="http://www.opengis.net/gml">
 <sos:Contents>
  <sos:ObservationOfferingList>
   <sos:ObservationOffering gml:id="network-all">
    <gml:name>urn:ioos:network:noaa.nws.ndbc:all</gml:name>
   </sos:ObservationOffering>
   <sos:ObservationOffering gml:id="station-41001">
    <gml:name>urn:ioos:station:wmo:41001</gml:name>
   </sos:ObservationOffering>
   <sos:ObservationOffering gml:id="station-41002">
    <gml:name>urn:ioos:station:wmo:41002</gml:name>
   </sos:ObservationOffering>
  </sos:ObservationOfferingList>
 </sos:Contents>
</sos:Capabilities>`

const exceptionDoc = `<?xml version="1.0" encoding="UTF-8"?>
<ExceptionReport xmlns="http://www.opengis.net/ows/1.1" version="1.0.0">
 <Exception exceptionCode="InvalidParameterValue" locator="procedure">
  <ExceptionText>Procedure urn:nope not found</ExceptionText>
 </Exception>
</ExceptionReport>`

func newTestClient(t *testing.T, handler http.HandlerFunc) *sos.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return sos.NewClient(srv.URL, 5*time.Second, slog.Default())
}

func TestClient_ListStations(t *testing.T) {
	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "text/xml")
		w.Write([]byte(capabilitiesDoc))
	})

	stations, err := client.ListStations(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SOS", gotQuery.Get("service"))
	assert.Equal(t, "GetCapabilities", gotQuery.Get("request"))
	assert.Equal(t, "1.0.0", gotQuery.Get("acceptVersions"))

	// The network offering is a composite set, not a station.
	assert.Equal(t, []string{"urn:ioos:station:wmo:41001", "urn:ioos:station:wmo:41002"}, stations)
}

func TestClient_DescribeSensor(t *testing.T) {
	payload := []byte(`<sml:SensorML xmlns:sml="http://www.opengis.net/sensorML/1.0.1"/>`)

	var gotQuery url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "text/xml")
		w.Write(payload)
	})

	body, err := client.DescribeSensor(context.Background(), "urn:ioos:station:wmo:41001")
	require.NoError(t, err)
	assert.Equal(t, payload, body)

	assert.Equal(t, "SOS", gotQuery.Get("service"))
	assert.Equal(t, "DescribeSensor", gotQuery.Get("request"))
	assert.Equal(t, "1.0.0", gotQuery.Get("version"))
	assert.Equal(t, "urn:ioos:station:wmo:41001", gotQuery.Get("procedure"))
	assert.Equal(t, sos.DescribeSensorFormat, gotQuery.Get("outputFormat"))
}

func TestClient_DescribeSensor_ExceptionReport(t *testing.T) {
	t.Run("with error status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(exceptionDoc))
		})

		_, err := client.DescribeSensor(context.Background(), "urn:nope")
		require.Error(t, err)

		var transport *domain.TransportError
		require.ErrorAs(t, err, &transport)
		assert.Equal(t, "DescribeSensor", transport.Op)
		assert.Equal(t, "urn:nope", transport.StationURN)
		assert.Contains(t, err.Error(), "InvalidParameterValue")
		assert.Contains(t, err.Error(), "Procedure urn:nope not found")
	})

	t.Run("with status 200", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(exceptionDoc))
		})

		_, err := client.DescribeSensor(context.Background(), "urn:nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "InvalidParameterValue")
	})
}

func TestClient_DescribeSensor_MultipleExceptions(t *testing.T) {
	// The second exception carries no ExceptionText; its code must still be
	// reported alongside the first exception's message.
	const doc = `<?xml version="1.0" encoding="UTF-8"?>
<ExceptionReport xmlns="http://www.opengis.net/ows/1.1" version="1.0.0">
 <Exception exceptionCode="InvalidParameterValue" locator="procedure">
  <ExceptionText>Procedure urn:nope not found</ExceptionText>
 </Exception>
 <Exception exceptionCode="MissingParameterValue" locator="outputFormat"/>
</ExceptionReport>`

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(doc))
	})

	_, err := client.DescribeSensor(context.Background(), "urn:nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Procedure urn:nope not found")
	assert.Contains(t, err.Error(), "MissingParameterValue")
}

func TestClient_ListStations_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	_, err := client.ListStations(context.Background())
	require.Error(t, err)

	var transport *domain.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, "GetCapabilities", transport.Op)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_ListStations_MalformedCapabilities(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<unclosed"))
	})

	_, err := client.ListStations(context.Background())
	require.Error(t, err)

	var transport *domain.TransportError
	require.ErrorAs(t, err, &transport)
}

func TestClient_DescribeSensor_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	client := sos.NewClient(srv.URL, 50*time.Millisecond, slog.Default())

	_, err := client.DescribeSensor(context.Background(), "urn:ioos:station:wmo:41001")
	require.Error(t, err)

	var transport *domain.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, "urn:ioos:station:wmo:41001", transport.StationURN)
}
