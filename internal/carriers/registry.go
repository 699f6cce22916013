package carriers

import (
	"net/url"
	"regexp"
	"strings"
)

// ParseStrategy selects how a carrier's tracking page is parsed
type ParseStrategy string

const (
	ParseJSONEmbedded ParseStrategy = "json_embedded"
	ParseHTMLTimeline ParseStrategy = "html_timeline"
)

// EventSelectors maps event fields to CSS selectors for the HTML-timeline strategy
type EventSelectors struct {
	Date        string
	Time        string
	Location    string
	Description string
}

// Config describes a single known carrier. Entries are defined at process
// start and never mutated.
type Config struct {
	ID               string
	Name             string
	TrackingURL      string // template with a {TRACKING_NUMBER} placeholder
	Patterns         []*regexp.Regexp
	Strategy         ParseStrategy
	TimelineSelector string
	EventSelectors   *EventSelectors
}

// Registry holds the carrier catalog in detection-priority order. First
// pattern match wins; ambiguous formats shared by two carriers resolve to
// whichever appears earlier here, not to the more specific pattern.
var Registry = []*Config{
	{
		ID:          "ups",
		Name:        "UPS",
		TrackingURL: "https://www.ups.com/track?loc=en_US&tracknum={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^1Z[A-Z0-9]{16}$`),
		},
		Strategy: ParseJSONEmbedded,
	},
	{
		ID:          "fedex",
		Name:        "FedEx",
		TrackingURL: "https://www.fedex.com/fedextrack/?tracknumbers={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\d{12}$`),
			regexp.MustCompile(`^\d{15}$`),
			regexp.MustCompile(`^\d{20}$`),
			regexp.MustCompile(`^\d{22}$`),
		},
		Strategy: ParseJSONEmbedded,
	},
	{
		ID:          "usps",
		Name:        "USPS",
		TrackingURL: "https://tools.usps.com/go/TrackConfirmAction?qtc_tLabels1={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(94|93|92|95)\d{20,22}$`),
			regexp.MustCompile(`^[A-Z]{2}\d{9}US$`),
		},
		Strategy:         ParseHTMLTimeline,
		TimelineSelector: ".track-bar-container",
	},
	{
		ID:          "dhl",
		Name:        "DHL Express",
		TrackingURL: "https://www.dhl.com/global-en/home/tracking/tracking-express.html?AWB={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\d{10,11}$`),
			regexp.MustCompile(`^[A-Z]{3}\d{7}$`),
		},
		Strategy: ParseJSONEmbedded,
	},
	{
		ID:          "anpost",
		Name:        "An Post",
		TrackingURL: "https://www.anpost.com/Post-Parcels/Track/History?item={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^[A-Z]{2}\d{9}[A-Z]{2}$`),
			regexp.MustCompile(`^[A-Z]{2}\d{9}IE$`),
		},
		Strategy:         ParseHTMLTimeline,
		TimelineSelector: ".tracking-history, .track-history, table.tracking",
		EventSelectors: &EventSelectors{
			Date:        ".date, td:first-child",
			Location:    ".location, td:nth-child(2)",
			Description: ".status, .description, td:nth-child(3)",
		},
	},
	{
		ID:          "royalmail",
		Name:        "Royal Mail",
		TrackingURL: "https://www.royalmail.com/track-your-item?trackingNumber={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^[A-Z]{2}\d{9}GB$`),
			regexp.MustCompile(`^[A-Z]{2}\d{9}[A-Z]{2}$`),
		},
		Strategy: ParseHTMLTimeline,
	},
	{
		ID:          "dpd",
		Name:        "DPD",
		TrackingURL: "https://shipping.dpd.ie/tracking/?parcel={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\d{14}$`),
			regexp.MustCompile(`^[A-Z0-9]{14,27}$`),
		},
		Strategy: ParseHTMLTimeline,
	},
	{
		ID:          "postnl",
		Name:        "PostNL",
		TrackingURL: "https://www.postnl.nl/en/receiving/parcels/track-and-trace/?tracktrace={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^[A-Z]{2}\d{9}NL$`),
			regexp.MustCompile(`^3S[A-Z0-9]{15,18}$`),
		},
		Strategy: ParseJSONEmbedded,
	},
	{
		ID:          "canadapost",
		Name:        "Canada Post",
		TrackingURL: "https://www.canadapost-postescanada.ca/track-reperage/en?search={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^\d{16}$`),
			regexp.MustCompile(`^[A-Z]{2}\d{9}CA$`),
		},
		Strategy: ParseHTMLTimeline,
	},
	{
		ID:          "gls",
		Name:        "GLS",
		TrackingURL: "https://gls-group.com/IE/en/parcel-tracking?match={TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^[A-Z0-9]{11,14}$`),
		},
		Strategy: ParseHTMLTimeline,
	},
	{
		ID:          "auspost",
		Name:        "Australia Post",
		TrackingURL: "https://auspost.com.au/mypost/track/#/details/{TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^[A-Z]{2}\d{9}AU$`),
			regexp.MustCompile(`^\d{13,22}$`),
		},
		Strategy: ParseJSONEmbedded,
	},
	{
		ID:          "amazon",
		Name:        "Amazon Logistics",
		TrackingURL: "https://track.amazon.com/tracking/{TRACKING_NUMBER}",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`^TBA\d{12,}$`),
		},
		Strategy: ParseJSONEmbedded,
	},
}

var whitespace = regexp.MustCompile(`\s+`)

// Normalize uppercases a tracking number and strips all whitespace. Every
// pattern match, cache key, and URL build goes through this first.
func Normalize(trackingNumber string) string {
	return whitespace.ReplaceAllString(strings.ToUpper(strings.TrimSpace(trackingNumber)), "")
}

// Detect returns the first carrier whose any pattern matches the normalized
// tracking number, or nil if none match.
func Detect(trackingNumber string) *Config {
	normalized := Normalize(trackingNumber)

	for _, carrier := range Registry {
		for _, pattern := range carrier.Patterns {
			if pattern.MatchString(normalized) {
				return carrier
			}
		}
	}

	return nil
}

// ByID returns the carrier with the given id, or nil if absent
func ByID(id string) *Config {
	for _, carrier := range Registry {
		if carrier.ID == id {
			return carrier
		}
	}
	return nil
}

// BuildTrackingURL substitutes the URL-encoded tracking number into the
// carrier's template.
func BuildTrackingURL(carrier *Config, trackingNumber string) string {
	return strings.Replace(carrier.TrackingURL, "{TRACKING_NUMBER}", url.QueryEscape(trackingNumber), 1)
}

// AllIDs returns the ids of every registered carrier in catalog order
func AllIDs() []string {
	ids := make([]string, 0, len(Registry))
	for _, carrier := range Registry {
		ids = append(ids, carrier.ID)
	}
	return ids
}
