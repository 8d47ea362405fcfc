package model

import (
	"time"
)

const (
	// OriginMetaAds marks a contact whose first captured signal was
	// attributable to a Meta/Facebook ad.
	OriginMetaAds = "meta_ads"
	// OriginUnidentified marks a contact with no recognizable ad signal.
	OriginUnidentified = "unidentified"
)

// AttributionEvent is one dated attribution observation. The contact keeps a
// rolling list of these regardless of whether the flat attribution fields
// changed.
type AttributionEvent struct {
	ObservedAt time.Time         `json:"observed_at"`
	Origin     string            `json:"origin"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// TrackingData is the structured content of a contact's tracking_data JSONB
// column: the flat extracted attribution fields, a bounded observation
// history, and an optional cached ad-detail object.
type TrackingData struct {
	UtmSource        string             `json:"utm_source,omitempty"`
	UtmMedium        string             `json:"utm_medium,omitempty"`
	UtmCampaign      string             `json:"utm_campaign,omitempty"`
	UtmContent       string             `json:"utm_content,omitempty"`
	UtmTerm          string             `json:"utm_term,omitempty"`
	Fbclid           string             `json:"fbclid,omitempty"`
	CtwaClid         string             `json:"ctwa_clid,omitempty"`
	SourceID         string             `json:"source_id,omitempty"`
	SourceURL        string             `json:"source_url,omitempty"`
	SourceApp        string             `json:"source_app,omitempty"`
	ConversionSource string             `json:"conversion_source,omitempty"`
	AdDetails        map[string]string  `json:"ad_details,omitempty"`
	Events           []AttributionEvent `json:"events,omitempty"`
}

// HasAttribution reports whether any flat attribution field (or the cached
// ad-detail object) is populated. The observation history does not count:
// a contact can carry events from before attribution tracking captured a
// usable first touch.
func (t *TrackingData) HasAttribution() bool {
	if t == nil {
		return false
	}
	return t.UtmSource != "" || t.UtmMedium != "" || t.UtmCampaign != "" ||
		t.UtmContent != "" || t.UtmTerm != "" ||
		t.Fbclid != "" || t.CtwaClid != "" ||
		t.SourceID != "" || t.SourceURL != "" || t.SourceApp != "" ||
		t.ConversionSource != "" || len(t.AdDetails) > 0
}

// FlatFields returns the populated flat attribution fields as a sparse map,
// suitable for an AttributionEvent entry.
func (t *TrackingData) FlatFields() map[string]string {
	if t == nil {
		return nil
	}
	fields := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			fields[k] = v
		}
	}
	put("utm_source", t.UtmSource)
	put("utm_medium", t.UtmMedium)
	put("utm_campaign", t.UtmCampaign)
	put("utm_content", t.UtmContent)
	put("utm_term", t.UtmTerm)
	put("fbclid", t.Fbclid)
	put("ctwa_clid", t.CtwaClid)
	put("source_id", t.SourceID)
	put("source_url", t.SourceURL)
	put("source_app", t.SourceApp)
	put("conversion_source", t.ConversionSource)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
