package usecase

import (
	"time"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
)

// applyAttribution merges newly extracted attribution into a contact.
// Flat fields are first-write-wins: an attributed contact keeps its original
// origin and UTM columns no matter what later events carry. The observation
// history grows whenever a qualifying ad signal arrives, capped to the most
// recent limit entries.
func applyAttribution(contact *model.Contact, incoming *model.TrackingData, origin string, observedAt time.Time, limit int) error {
	existing, err := contact.Tracking()
	if err != nil {
		// A corrupt blob must not block ingestion. Start fresh; the raw
		// payload of every message is still stored for replay.
		existing = &model.TrackingData{}
	}

	existingHas := existing.HasAttribution()
	incomingHas := incoming.HasAttribution()

	appendObservation := false
	switch {
	case !existingHas && incomingHas:
		// First usable touch: adopt the new flat fields wholesale. The
		// origin upgrades too, even when earlier organic messages already
		// stamped the contact "unidentified".
		adoptFlatFields(existing, incoming)
		contact.Origin = origin
		appendObservation = true
	case existingHas:
		// Attributed already. Flat fields stay; record the signal only
		// when the new event itself qualifies as ad-attributable.
		appendObservation = origin == model.OriginMetaAds && incomingHas
	}

	if appendObservation {
		existing.Events = append(existing.Events, model.AttributionEvent{
			ObservedAt: observedAt,
			Origin:     origin,
			Fields:     incoming.FlatFields(),
		})
	}
	if limit > 0 && len(existing.Events) > limit {
		existing.Events = existing.Events[len(existing.Events)-limit:]
	}

	// Mirror the flat fields onto the contact columns, first-write-wins once
	// the contact is attributed.
	setIfEmpty(&contact.Origin, origin)
	setIfEmpty(&contact.UtmSource, existing.UtmSource)
	setIfEmpty(&contact.UtmMedium, existing.UtmMedium)
	setIfEmpty(&contact.UtmCampaign, existing.UtmCampaign)
	setIfEmpty(&contact.UtmContent, existing.UtmContent)
	setIfEmpty(&contact.UtmTerm, existing.UtmTerm)

	return contact.SetTracking(existing)
}

// adoptFlatFields copies incoming attribution into dst, filling only fields
// dst does not already hold.
func adoptFlatFields(dst, src *model.TrackingData) {
	setIfEmpty(&dst.UtmSource, src.UtmSource)
	setIfEmpty(&dst.UtmMedium, src.UtmMedium)
	setIfEmpty(&dst.UtmCampaign, src.UtmCampaign)
	setIfEmpty(&dst.UtmContent, src.UtmContent)
	setIfEmpty(&dst.UtmTerm, src.UtmTerm)
	setIfEmpty(&dst.Fbclid, src.Fbclid)
	setIfEmpty(&dst.CtwaClid, src.CtwaClid)
	setIfEmpty(&dst.SourceID, src.SourceID)
	setIfEmpty(&dst.SourceURL, src.SourceURL)
	setIfEmpty(&dst.SourceApp, src.SourceApp)
	setIfEmpty(&dst.ConversionSource, src.ConversionSource)
	if len(dst.AdDetails) == 0 && len(src.AdDetails) > 0 {
		dst.AdDetails = src.AdDetails
	}
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}
