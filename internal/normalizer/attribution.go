package normalizer

import (
	"net/url"
	"strings"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/model"
)

// metaIndicators classify a source/conversion string as Meta/Facebook ad
// traffic when any of them appears case-insensitively inside the value.
var metaIndicators = []string{
	"facebook", "meta", "fb", "meta_ads", "facebook_ads", "fb_ads",
}

// Attribution alias tables. Probed against the ad-context sub-objects first,
// then the raw payload, the envelope and the chat object.
var (
	utmSourceAliases   = []string{"utm_source", "utmSource"}
	utmMediumAliases   = []string{"utm_medium", "utmMedium"}
	utmCampaignAliases = []string{"utm_campaign", "utmCampaign"}
	utmContentAliases  = []string{"utm_content", "utmContent"}
	utmTermAliases     = []string{"utm_term", "utmTerm"}

	fbclidAliases     = []string{"fbclid", "fb_clid", "clickId", "click_id"}
	ctwaClidAliases   = []string{"ctwa_clid", "ctwaClid", "ctwa"}
	sourceIDAliases   = []string{"source_id", "sourceId", "ad_id", "adId"}
	sourceURLAliases  = []string{"source_url", "sourceUrl"}
	sourceAppAliases  = []string{"source_app", "sourceApp"}
	conversionAliases = []string{"conversion_source", "conversionSource", "conversion"}

	// adDetailKeys are copied verbatim into the cached ad-detail object
	// when found in an ad-context container.
	adDetailKeys = []string{
		"title", "headline", "body", "description", "mediaType",
		"media_type", "thumbnailUrl", "thumbnail_url", "sourceType",
		"source_type", "source_id", "source_url", "ctwa_clid",
	}
)

// ExtractAttribution probes the payload for UTM parameters, click ids and
// click-to-message ad metadata, returning the sparse tracking fields and the
// origin classification.
func ExtractAttribution(c *Containers) (string, *model.TrackingData) {
	adContexts := adContextContainers(c)
	probe := append(adContexts, c.Root, c.Data, c.Chat)

	td := &model.TrackingData{
		UtmSource:        firstAlias(probe, utmSourceAliases),
		UtmMedium:        firstAlias(probe, utmMediumAliases),
		UtmCampaign:      firstAlias(probe, utmCampaignAliases),
		UtmContent:       firstAlias(probe, utmContentAliases),
		UtmTerm:          firstAlias(probe, utmTermAliases),
		Fbclid:           firstAlias(probe, fbclidAliases),
		CtwaClid:         firstAlias(probe, ctwaClidAliases),
		SourceID:         firstAlias(adContexts, sourceIDAliases),
		SourceURL:        firstAlias(adContexts, sourceURLAliases),
		SourceApp:        firstAlias(adContexts, sourceAppAliases),
		ConversionSource: firstAlias(probe, conversionAliases),
	}

	for _, ctx := range adContexts {
		if details := collectAdDetails(ctx); len(details) > 0 {
			td.AdDetails = details
			break
		}
	}

	// A source URL can carry UTM tags in its query string. Lowest
	// priority: only still-empty fields are filled from it.
	fillFromSourceURL(td)

	return Classify(td), td
}

// adContextContainers lists the nested ad-reply/referral sub-objects where
// click-to-message metadata lives, in probe priority order.
func adContextContainers(c *Containers) []map[string]interface{} {
	var out []map[string]interface{}
	for _, base := range []map[string]interface{}{c.Message, c.CloudMessage, c.Data, c.Root} {
		if base == nil {
			continue
		}
		if ctxInfo := childObject(base, "contextInfo", "context_info"); ctxInfo != nil {
			if adReply := childObject(ctxInfo, "externalAdReply", "external_ad_reply"); adReply != nil {
				out = append(out, adReply)
			}
		}
		if referral := childObject(base, "referral"); referral != nil {
			out = append(out, referral)
		}
		if ctx := childObject(base, "context"); ctx != nil {
			if referral := childObject(ctx, "referral"); referral != nil {
				out = append(out, referral)
			}
		}
	}
	return out
}

func collectAdDetails(ctx map[string]interface{}) map[string]string {
	details := map[string]string{}
	for _, key := range adDetailKeys {
		if v := lookupString(ctx, key); v != "" {
			details[key] = v
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}

func fillFromSourceURL(td *model.TrackingData) {
	if td.SourceURL == "" {
		return
	}
	parsed, err := url.Parse(td.SourceURL)
	if err != nil {
		return
	}
	query := parsed.Query()
	set := func(dst *string, key string) {
		if *dst == "" {
			*dst = query.Get(key)
		}
	}
	set(&td.UtmSource, "utm_source")
	set(&td.UtmMedium, "utm_medium")
	set(&td.UtmCampaign, "utm_campaign")
	set(&td.UtmContent, "utm_content")
	set(&td.UtmTerm, "utm_term")
	set(&td.Fbclid, "fbclid")
}

// Classify decides the origin of the tracking fields: meta_ads when the UTM
// source or conversion source names a Meta property, or when any click id or
// click-to-message ad identifier is present.
func Classify(td *model.TrackingData) string {
	if td == nil {
		return model.OriginUnidentified
	}
	if td.Fbclid != "" || td.CtwaClid != "" {
		return model.OriginMetaAds
	}
	if td.SourceID != "" || td.SourceApp != "" {
		return model.OriginMetaAds
	}
	if containsMetaIndicator(td.UtmSource) || containsMetaIndicator(td.ConversionSource) {
		return model.OriginMetaAds
	}
	return model.OriginUnidentified
}

func containsMetaIndicator(s string) bool {
	if s == "" {
		return false
	}
	lowered := strings.ToLower(s)
	for _, indicator := range metaIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}
