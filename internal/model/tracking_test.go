package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasAttribution(t *testing.T) {
	assert.False(t, (&TrackingData{}).HasAttribution())
	assert.False(t, (*TrackingData)(nil).HasAttribution())

	assert.True(t, (&TrackingData{UtmSource: "facebook"}).HasAttribution())
	assert.True(t, (&TrackingData{Fbclid: "abc"}).HasAttribution())
	assert.True(t, (&TrackingData{AdDetails: map[string]string{"headline": "Sale"}}).HasAttribution())

	// History alone does not count as attribution.
	withEvents := &TrackingData{Events: []AttributionEvent{{ObservedAt: time.Now(), Origin: OriginUnidentified}}}
	assert.False(t, withEvents.HasAttribution())
}

func TestFlatFields(t *testing.T) {
	td := &TrackingData{
		UtmSource:   "facebook",
		UtmCampaign: "q4",
		CtwaClid:    "ctwa-1",
	}

	fields := td.FlatFields()
	assert.Equal(t, map[string]string{
		"utm_source":   "facebook",
		"utm_campaign": "q4",
		"ctwa_clid":    "ctwa-1",
	}, fields)

	assert.Nil(t, (&TrackingData{}).FlatFields())
}

func TestContactTrackingRoundTrip(t *testing.T) {
	contact := NewContact()
	td := &TrackingData{
		UtmSource: "facebook",
		Fbclid:    "click-1",
		Events: []AttributionEvent{{
			ObservedAt: time.Unix(1700000000, 0).UTC(),
			Origin:     OriginMetaAds,
			Fields:     map[string]string{"utm_source": "facebook"},
		}},
	}

	require.NoError(t, contact.SetTracking(td))

	decoded, err := contact.Tracking()
	require.NoError(t, err)
	assert.Equal(t, td.UtmSource, decoded.UtmSource)
	assert.Equal(t, td.Fbclid, decoded.Fbclid)
	require.Len(t, decoded.Events, 1)
	assert.True(t, td.Events[0].ObservedAt.Equal(decoded.Events[0].ObservedAt))
}

func TestContactTrackingEmptyColumn(t *testing.T) {
	contact := NewContact()
	contact.TrackingData = nil

	td, err := contact.Tracking()
	require.NoError(t, err)
	assert.False(t, td.HasAttribution())
}
