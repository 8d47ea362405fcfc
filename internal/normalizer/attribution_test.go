package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
)

func extract(t *testing.T, raw string) (string, *model.TrackingData) {
	t.Helper()
	_, containers := Normalize(decode(t, raw))
	return ExtractAttribution(containers)
}

func TestExtractAttributionExternalAdReply(t *testing.T) {
	origin, td := extract(t, `{
		"from": "6281234567890",
		"body": "saw your ad",
		"message": {
			"contextInfo": {
				"externalAdReply": {
					"title": "Promo September",
					"sourceType": "ad",
					"source_id": "120210000000000001",
					"source_url": "https://fb.me/abc?utm_source=facebook&utm_campaign=promo-sep",
					"ctwa_clid": "ARAbCdEf123"
				}
			}
		}
	}`)

	assert.Equal(t, model.OriginMetaAds, origin)
	assert.Equal(t, "120210000000000001", td.SourceID)
	assert.Equal(t, "ARAbCdEf123", td.CtwaClid)
	// UTM tags filled from the source URL query string.
	assert.Equal(t, "facebook", td.UtmSource)
	assert.Equal(t, "promo-sep", td.UtmCampaign)
	require.NotNil(t, td.AdDetails)
	assert.Equal(t, "Promo September", td.AdDetails["title"])
}

func TestExtractAttributionCloudReferral(t *testing.T) {
	origin, td := extract(t, `{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [{
						"from": "6281234567890",
						"id": "wamid.1",
						"referral": {
							"source_type": "ad",
							"source_id": "23850000000000000",
							"source_url": "https://fb.me/xyz",
							"headline": "New arrivals",
							"ctwa_clid": "ctwa-99"
						}
					}]
				}
			}]
		}]
	}`)

	assert.Equal(t, model.OriginMetaAds, origin)
	assert.Equal(t, "23850000000000000", td.SourceID)
	assert.Equal(t, "ctwa-99", td.CtwaClid)
	assert.Equal(t, "New arrivals", td.AdDetails["headline"])
}

func TestExtractAttributionTopLevelUtm(t *testing.T) {
	origin, td := extract(t, `{
		"from": "6281234567890",
		"utm_source": "facebook",
		"utm_medium": "cpc",
		"utm_campaign": "q4-launch"
	}`)

	assert.Equal(t, model.OriginMetaAds, origin)
	assert.Equal(t, "facebook", td.UtmSource)
	assert.Equal(t, "cpc", td.UtmMedium)
	assert.Equal(t, "q4-launch", td.UtmCampaign)
	assert.Nil(t, td.AdDetails)
}

func TestExtractAttributionFbclid(t *testing.T) {
	origin, td := extract(t, `{"from": "6281234567890", "fbclid": "IwAR123"}`)
	assert.Equal(t, model.OriginMetaAds, origin)
	assert.Equal(t, "IwAR123", td.Fbclid)
}

func TestExtractAttributionNone(t *testing.T) {
	origin, td := extract(t, `{"from": "6281234567890", "body": "hi there"}`)
	assert.Equal(t, model.OriginUnidentified, origin)
	assert.False(t, td.HasAttribution())
	assert.Nil(t, td.FlatFields())
}

func TestClassifyBoundary(t *testing.T) {
	tests := []struct {
		name string
		td   *model.TrackingData
		want string
	}{
		{"facebook ads source", &model.TrackingData{UtmSource: "Facebook Ads"}, model.OriginMetaAds},
		{"bare fb", &model.TrackingData{UtmSource: "fb"}, model.OriginMetaAds},
		{"newsletter", &model.TrackingData{UtmSource: "newsletter"}, model.OriginUnidentified},
		{"google", &model.TrackingData{UtmSource: "google", UtmMedium: "cpc"}, model.OriginUnidentified},
		{"click id only", &model.TrackingData{Fbclid: "x"}, model.OriginMetaAds},
		{"ctwa only", &model.TrackingData{CtwaClid: "x"}, model.OriginMetaAds},
		{"ad source id only", &model.TrackingData{SourceID: "123"}, model.OriginMetaAds},
		{"conversion source", &model.TrackingData{ConversionSource: "FB_Ads"}, model.OriginMetaAds},
		{"empty", &model.TrackingData{}, model.OriginUnidentified},
		{"nil", nil, model.OriginUnidentified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.td))
		})
	}
}
