package parser

import (
	"regexp"
	"strings"
)

// carrierPattern binds an extraction regex to the carrier it implies.
// Unlike the detection catalog these are unanchored: they find candidates
// inside arbitrary prose. Order encodes priority; the first carrier to
// claim a number keeps it.
type carrierPattern struct {
	carrier string
	regex   *regexp.Regexp
}

var trackingPatterns = []carrierPattern{
	{"ups", regexp.MustCompile(`(?i)1Z[A-Z0-9]{16}`)},
	{"fedex", regexp.MustCompile(`\b(\d{12}|\d{15}|\d{20}|\d{22})\b`)},
	{"usps", regexp.MustCompile(`\b(94|93|92|95)\d{20,22}\b`)},
	{"usps", regexp.MustCompile(`(?i)\b[A-Z]{2}\d{9}US\b`)},
	{"amazon", regexp.MustCompile(`(?i)TBA\d{12,}`)},
	{"dhl", regexp.MustCompile(`\b\d{10,11}\b`)},
	{"anpost", regexp.MustCompile(`(?i)\b[A-Z]{2}\d{9}(IE|CN|GB|DE|FR|NL)\b`)},
	{"royalmail", regexp.MustCompile(`(?i)\b[A-Z]{2}\d{9}GB\b`)},
	{"postnl", regexp.MustCompile(`(?i)\b(3S[A-Z0-9]{15,18}|[A-Z]{2}\d{9}NL)\b`)},
	{"canadapost", regexp.MustCompile(`(?i)\b(\d{16}|[A-Z]{2}\d{9}CA)\b`)},
	{"auspost", regexp.MustCompile(`(?i)\b[A-Z]{2}\d{9}AU\b`)},
	{"dpd", regexp.MustCompile(`\b\d{14}\b`)},
}

var merchantPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:from|by|order from)\s+([A-Za-z0-9\s]+?)(?:\.|,|!|\n)`),
	regexp.MustCompile(`(?i)([A-Za-z]+)\s+(?:order|shipment|delivery)`),
	regexp.MustCompile(`(?i)shipped\s+(?:by|from|via)\s+([A-Za-z0-9\s]+)`),
}

var orderNumberPattern = regexp.MustCompile(`(?i)(?:order|confirmation|reference)\s*(?:#|number|:)?\s*([A-Z0-9-]+)`)

var itemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:item|product|ordered):\s*(.+?)(?:\n|$)`),
	regexp.MustCompile(`(?i)shipping\s+(.+?)(?:\n|$)`),
}

const (
	maxItemDescriptionLen = 100
	maxRawContentLen      = 500
)

// TrackingCandidate is a tracking number found in free text plus the
// carrier its shape implies.
type TrackingCandidate struct {
	Number  string `json:"number"`
	Carrier string `json:"carrier"`
}

// Extraction holds everything pulled from one piece of content
type Extraction struct {
	TrackingNumbers []TrackingCandidate `json:"trackingNumbers"`
	MerchantName    *string             `json:"merchantName"`
	OrderNumber     *string             `json:"orderNumber"`
	ItemDescription *string             `json:"itemDescription"`
	RawContent      string              `json:"rawContent"`
}

// Extractor pulls tracking numbers and shipment metadata out of free text
// such as forwarded order-confirmation emails.
type Extractor struct{}

// NewExtractor creates an extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract scans content for tracking numbers, the merchant, an order
// number, and an item description. Missing fields come back nil.
func (e *Extractor) Extract(content string) *Extraction {
	extraction := &Extraction{
		TrackingNumbers: e.extractTrackingNumbers(content),
		MerchantName:    firstCapture(merchantPatterns, content),
		OrderNumber:     firstCapture([]*regexp.Regexp{orderNumberPattern}, content),
		RawContent:      truncate(content, maxRawContentLen),
	}

	if item := firstCapture(itemPatterns, content); item != nil {
		trimmed := truncate(*item, maxItemDescriptionLen)
		extraction.ItemDescription = &trimmed
	}

	return extraction
}

// extractTrackingNumbers finds every candidate number, deduplicated on the
// number text; pattern order decides which carrier a shared shape goes to.
func (e *Extractor) extractTrackingNumbers(content string) []TrackingCandidate {
	candidates := []TrackingCandidate{}
	seen := make(map[string]bool)

	for _, entry := range trackingPatterns {
		for _, match := range entry.regex.FindAllString(content, -1) {
			if seen[match] {
				continue
			}
			seen[match] = true
			candidates = append(candidates, TrackingCandidate{
				Number:  match,
				Carrier: entry.carrier,
			})
		}
	}

	return candidates
}

// firstCapture returns the first pattern's first capture group, trimmed
func firstCapture(patterns []*regexp.Regexp, content string) *string {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(content)
		if len(match) > 1 && strings.TrimSpace(match[1]) != "" {
			value := strings.TrimSpace(match[1])
			return &value
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
