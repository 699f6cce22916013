package scraper

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"parcel-tracking/internal/carriers"
)

// embeddedJSONPatterns match the script blobs SPAs hydrate themselves from.
// Tried in order; the first blob that parses as JSON wins.
var embeddedJSONPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script[^>]*>.*?window\.__INITIAL_STATE__\s*=\s*({.*?});?\s*</script>`),
	regexp.MustCompile(`(?is)<script[^>]*>.*?window\.__STATE__\s*=\s*({.*?});?\s*</script>`),
	regexp.MustCompile(`(?is)<script[^>]*>.*?window\.__PRELOADED_STATE__\s*=\s*({.*?});?\s*</script>`),
	regexp.MustCompile(`(?is)<script[^>]*>.*?window\.trackingData\s*=\s*({.*?});?\s*</script>`),
	regexp.MustCompile(`(?is)<script[^>]*>.*?var\s+trackDetails\s*=\s*({.*?});?\s*</script>`),
	regexp.MustCompile(`(?is)<script[^>]*type="application/json"[^>]*>({.*?})</script>`),
	regexp.MustCompile(`(?is)<script[^>]*id="__NEXT_DATA__"[^>]*>({.*?})</script>`),
}

// ExtractEmbeddedJSON pulls the first parseable JSON state blob out of a
// carrier page, or nil when none is found.
func ExtractEmbeddedJSON(html string) map[string]interface{} {
	for _, pattern := range embeddedJSONPatterns {
		match := pattern.FindStringSubmatch(html)
		if len(match) < 2 {
			continue
		}

		var blob map[string]interface{}
		if err := json.Unmarshal([]byte(match[1]), &blob); err != nil {
			continue
		}
		return blob
	}

	return nil
}

// Depth bounds for the recursive JSON walks. Carrier state blobs nest deep
// but event arrays live near the top; the bounds keep pathological payloads
// from costing unbounded work.
const (
	maxEventSearchDepth = 10
	maxEtaSearchDepth   = 5
)

// eventArrayKeys are names carriers use for their event list
var eventArrayKeys = []string{"events", "trackEvents", "shipmentEvents", "history", "timeline", "activities", "scans"}

// etaKeys are names carriers use for the estimated delivery date
var etaKeys = []string{"estimatedDelivery", "eta", "expectedDelivery", "deliveryDate", "scheduledDelivery"}

// looksLikeEvent reports whether a decoded value has the shape of a
// tracking event.
func looksLikeEvent(v interface{}) bool {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return false
	}
	for _, key := range []string{"description", "status", "message", "event"} {
		if _, ok := obj[key]; ok {
			return true
		}
	}
	return false
}

// findEventArray walks decoded JSON looking for the event list: either an
// array under a known key, or any array whose items look like events.
func findEventArray(v interface{}, depth int) []interface{} {
	if depth > maxEventSearchDepth {
		return nil
	}

	switch val := v.(type) {
	case []interface{}:
		for _, item := range val {
			if looksLikeEvent(item) {
				return val
			}
		}
		for _, item := range val {
			if found := findEventArray(item, depth+1); len(found) > 0 {
				return found
			}
		}
	case map[string]interface{}:
		for _, key := range eventArrayKeys {
			if arr, ok := val[key].([]interface{}); ok {
				return arr
			}
		}
		for _, child := range val {
			if found := findEventArray(child, depth+1); len(found) > 0 {
				return found
			}
		}
	}

	return nil
}

// findEta walks decoded JSON looking for an estimated-delivery string
func findEta(v interface{}, depth int) *time.Time {
	if depth > maxEtaSearchDepth {
		return nil
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}

	for _, key := range etaKeys {
		if s, ok := obj[key].(string); ok && s != "" {
			if ts := parseTimestamp(s, ""); ts != nil {
				return ts
			}
		}
	}

	for _, child := range obj {
		if found := findEta(child, depth+1); found != nil {
			return found
		}
	}

	return nil
}

// firstString returns the first non-empty string value among the given keys
func firstString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// extractFromJSON converts a decoded state blob into tracking events plus an
// optional ETA. Events without a description are dropped.
func extractFromJSON(blob map[string]interface{}) ([]carriers.TrackingEvent, *time.Time) {
	var events []carriers.TrackingEvent

	for _, raw := range findEventArray(blob, 0) {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		description := firstString(obj, "description", "status", "message", "event", "eventDescription")
		if description == "" {
			continue
		}

		var timestamp *time.Time
		if raw := firstString(obj, "timestamp", "date", "dateTime", "time", "eventTime"); raw != "" {
			timestamp = parseTimestamp(raw, "")
		}

		var location *string
		if raw := firstString(obj, "location", "city", "address"); raw != "" {
			location = &raw
		}

		events = append(events, carriers.TrackingEvent{
			Timestamp:   timestamp,
			Location:    location,
			Description: description,
			Status:      carriers.InferStatus(description),
		})
	}

	return events, findEta(blob, 0)
}

// timelineSelectors are tried after the carrier's own selector; common
// markup shapes across carrier tracking pages. Order matters: the carrier's
// selector always gets the first chance.
var timelineSelectors = []string{
	".tracking-history tr",
	".tracking-events .event",
	".timeline-event",
	".track-history-row",
	".shipment-progress-step",
	"table.tracking tbody tr",
	".tracking-result .event",
	"[data-tracking-event]",
	".parcel-tracking-event",
}

var descriptionSelectors = []string{".description", ".status", ".event-description", ".message", "td:last-child", ".details"}
var locationSelectors = []string{".location", "td:nth-child(2)", ".place"}
var dateSelectors = []string{".date", "td:first-child", ".time", ".timestamp"}

var collapseWhitespace = regexp.MustCompile(`\s+`)

// parseHTMLTimeline extracts events from server-rendered tracking markup.
// The first selector that matches any elements and yields at least one
// event wins; later selectors are not consulted.
func parseHTMLTimeline(doc *goquery.Document, carrier *carriers.Config) []carriers.TrackingEvent {
	selectors := make([]string, 0, len(timelineSelectors)+1)
	if carrier.TimelineSelector != "" {
		selectors = append(selectors, carrier.TimelineSelector)
	}
	selectors = append(selectors, timelineSelectors...)

	for _, selector := range selectors {
		elements := doc.Find(selector)
		if elements.Length() == 0 {
			continue
		}

		var events []carriers.TrackingEvent
		elements.Each(func(_ int, el *goquery.Selection) {
			event, ok := parseTimelineElement(el, carrier)
			if ok {
				events = append(events, event)
			}
		})

		if len(events) > 0 {
			return events
		}
	}

	return nil
}

// parseTimelineElement extracts one event from a timeline element, using
// the carrier's field selectors first and generic fallbacks after.
func parseTimelineElement(el *goquery.Selection, carrier *carriers.Config) (carriers.TrackingEvent, bool) {
	var date, timeOfDay, location, description string

	if sel := carrier.EventSelectors; sel != nil {
		if sel.Date != "" {
			date = strings.TrimSpace(el.Find(sel.Date).Text())
		}
		if sel.Time != "" {
			timeOfDay = strings.TrimSpace(el.Find(sel.Time).Text())
		}
		if sel.Location != "" {
			location = strings.TrimSpace(el.Find(sel.Location).Text())
		}
		if sel.Description != "" {
			description = strings.TrimSpace(el.Find(sel.Description).Text())
		}
	}

	if description == "" {
		for _, sel := range descriptionSelectors {
			if text := strings.TrimSpace(el.Find(sel).Text()); text != "" {
				description = text
				break
			}
		}
	}

	if description == "" {
		description = strings.TrimSpace(collapseWhitespace.ReplaceAllString(el.Text(), " "))
	}

	if description == "" {
		return carriers.TrackingEvent{}, false
	}

	if location == "" {
		for _, sel := range locationSelectors {
			if text := strings.TrimSpace(el.Find(sel).Text()); text != "" && text != description {
				location = text
				break
			}
		}
	}

	if date == "" {
		for _, sel := range dateSelectors {
			if text := strings.TrimSpace(el.Find(sel).Text()); text != "" {
				date = text
				break
			}
		}
	}

	event := carriers.TrackingEvent{
		Timestamp:   parseTimestamp(date, timeOfDay),
		Description: description,
		Status:      carriers.InferStatus(description),
	}
	if location != "" {
		event.Location = &location
	}

	return event, true
}

// timestampLayouts are tried in order against scraped date text
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1-2-2006 15:04:05",
	"1-2-2006 15:04",
	"01/02/2006 3:04 PM",
	"January 2, 2006 15:04",
	"January 2, 2006 3:04 PM",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006 3:04 PM",
	"2 January 2006 15:04",
	"2 Jan 2006 15:04",
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// parseTimestamp parses scraped date (and optional time-of-day) text.
// Returns nil when the text matches no known layout; callers keep nil
// timestamps rather than inventing one.
func parseTimestamp(date, timeOfDay string) *time.Time {
	if date == "" {
		return nil
	}

	combined := date
	if timeOfDay != "" {
		combined = date + " " + timeOfDay
	}
	combined = strings.TrimSpace(collapseWhitespace.ReplaceAllString(combined, " "))

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, combined); err == nil {
			return &parsed
		}
	}

	return nil
}

// deriveStatus summarizes a result from its event list. Events arrive
// newest first; the first one carries the current status.
func deriveStatus(events []carriers.TrackingEvent) (carriers.TrackingStatus, string, *time.Time) {
	if len(events) == 0 {
		return carriers.StatusUnknown, "No tracking information available", nil
	}

	latest := events[0]
	var deliveredAt *time.Time
	if latest.Status == carriers.StatusDelivered {
		deliveredAt = latest.Timestamp
	}

	return latest.Status, latest.Description, deliveredAt
}
