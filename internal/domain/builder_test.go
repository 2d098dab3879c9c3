package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testURN = "urn:ioos:station:wmo:41001"

func strPtr(s string) *string { return &s }

func testDescription() StationDescription {
	return StationDescription{
		Lat: 34.5,
		Lon: -120.3,

		ShortName:      strPtr("41001"),
		LongName:       strPtr("Station 41001 - East of Cape Hatteras"),
		WMOID:          strPtr("41001"),
		PlatformType:   strPtr("buoy"),
		ParentNetwork:  strPtr("NDBC"),
		Sponsor:        strPtr("NOAA"),
		OperatorSector: strPtr("federal"),
		Publisher:      strPtr("NDBC"),
		WebpageURL:     strPtr("https://www.ndbc.noaa.gov/station_page.php?station=41001"),

		Contacts: map[string]Contact{
			RoleOperator: {
				Role:         RoleOperator,
				Organization: strPtr("National Data Buoy Center"),
				Country:      strPtr("USA"),
				URL:          strPtr("https://www.ndbc.noaa.gov/"),
			},
			RolePublisher: {
				Role:         RolePublisher,
				Organization: strPtr("NDBC"),
				URL:          strPtr("https://sdf.ndbc.noaa.gov/"),
			},
		},

		Starting: time.Date(2008, 7, 17, 0, 0, 0, 0, time.UTC),
		Ending:   time.Date(2024, 4, 26, 15, 0, 0, 0, time.UTC),

		Parameters: []OutputParameter{
			{DefinitionURI: "http://mmisw.org/ont/cf/parameter/air_temperature", Name: "air_temperature"},
			{DefinitionURI: "http://mmisw.org/ont/cf/parameter/wind_speed", Name: "wind_speed"},
		},
	}
}

func TestBuildStationRecord(t *testing.T) {
	frozen := time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	defer SetClock(nil)

	rec, err := BuildStationRecord(testURN, testDescription())
	require.NoError(t, err)

	assert.Equal(t, testURN, rec.StationURN)
	assert.Equal(t, 34.5, rec.Lat)
	assert.Equal(t, -120.3, rec.Lon)

	assert.Equal(t, strPtr("National Data Buoy Center"), rec.OperatorOrg)
	assert.Equal(t, strPtr("USA"), rec.OperatorCountry)
	assert.Equal(t, strPtr("https://www.ndbc.noaa.gov/"), rec.OperatorURL)
	assert.Equal(t, strPtr("NDBC"), rec.PublisherOrg)
	assert.Equal(t, strPtr("https://sdf.ndbc.noaa.gov/"), rec.PublisherURL)

	assert.Equal(t, "2008-07-17T00:00:00Z", rec.StartingISO)
	assert.Equal(t, "2024-04-26T15:00:00Z", rec.EndingISO)
	assert.Equal(t, rec.Starting.Format(time.RFC3339), rec.StartingISO)
	assert.Equal(t, rec.Ending.Format(time.RFC3339), rec.EndingISO)

	assert.Equal(t,
		"http://mmisw.org/ont/cf/parameter/air_temperature,http://mmisw.org/ont/cf/parameter/wind_speed",
		rec.ParameterURIs)
	assert.Equal(t, "air_temperature,wind_speed", rec.ParameterNames)

	assert.Equal(t, frozen, rec.HarvestedAt)
}

func TestBuildStationRecord_Deterministic(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(time.Date(2024, 4, 27, 6, 0, 0, 0, time.UTC)))
	defer SetClock(nil)

	first, err := BuildStationRecord(testURN, testDescription())
	require.NoError(t, err)
	second, err := BuildStationRecord(testURN, testDescription())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuildStationRecord_MissingRequiredContacts(t *testing.T) {
	t.Run("no operator", func(t *testing.T) {
		desc := testDescription()
		delete(desc.Contacts, RoleOperator)

		_, err := BuildStationRecord(testURN, desc)
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, testURN, missing.StationURN)
		assert.Contains(t, missing.Field, RoleOperator)
	})

	t.Run("no publisher", func(t *testing.T) {
		desc := testDescription()
		delete(desc.Contacts, RolePublisher)

		_, err := BuildStationRecord(testURN, desc)
		var missing *MissingFieldError
		require.ErrorAs(t, err, &missing)
		assert.Contains(t, missing.Field, RolePublisher)
	})
}

func TestBuildStationRecord_NoParameters(t *testing.T) {
	desc := testDescription()
	desc.Parameters = nil

	rec, err := BuildStationRecord(testURN, desc)
	require.NoError(t, err)
	assert.Empty(t, rec.ParameterURIs)
	assert.Empty(t, rec.ParameterNames)
}

func TestBuildStationRecord_OptionalFieldsStayNil(t *testing.T) {
	desc := testDescription()
	desc.ShortName = nil
	desc.WebpageURL = nil
	desc.Sponsor = nil

	rec, err := BuildStationRecord(testURN, desc)
	require.NoError(t, err)
	assert.Nil(t, rec.ShortName)
	assert.Nil(t, rec.WebpageURL)
	assert.Nil(t, rec.Sponsor)
	// Declared-empty stays distinct from missing.
	desc = testDescription()
	desc.LongName = strPtr("")
	rec, err = BuildStationRecord(testURN, desc)
	require.NoError(t, err)
	require.NotNil(t, rec.LongName)
	assert.Empty(t, *rec.LongName)
}
