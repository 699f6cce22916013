package carriers

import "strings"

type statusKeyword struct {
	keyword string
	status  TrackingStatus
}

// statusKeywords maps free-text status phrases to canonical statuses using
// substring containment, first match wins. Order matters: specific phrases
// precede generic ones that could false-positive. "customs" maps to
// in_transit even though it can appear in exception messages; that
// imprecision is a known limitation, with "customs hold" listed earlier as
// the exception-side escape hatch.
var statusKeywords = []statusKeyword{
	// Delivered
	{"delivered", StatusDelivered},
	{"zugestellt", StatusDelivered},
	{"livré", StatusDelivered},
	{"entregado", StatusDelivered},
	{"consegnato", StatusDelivered},
	{"bezorgd", StatusDelivered},
	{"доставлено", StatusDelivered},
	{"signed", StatusDelivered},
	{"collected", StatusDelivered},

	// Out for delivery
	{"out for delivery", StatusOutForDelivery},
	{"on vehicle", StatusOutForDelivery},
	{"with driver", StatusOutForDelivery},
	{"in zustellung", StatusOutForDelivery},
	{"en cours de livraison", StatusOutForDelivery},

	// Exception (listed before the in-transit table so that phrases like
	// "customs hold" and "delivery attempted" win over their generic parts)
	{"exception", StatusException},
	{"held", StatusException},
	{"delayed", StatusException},
	{"delivery attempted", StatusException},
	{"attempted", StatusException},
	{"returned", StatusException},
	{"undeliverable", StatusException},
	{"addressee unknown", StatusException},
	{"refused", StatusException},
	{"incorrect address", StatusException},
	{"not home", StatusException},
	{"customs hold", StatusException},

	// In transit
	{"in transit", StatusInTransit},
	{"departed", StatusInTransit},
	{"arrived", StatusInTransit},
	{"processed", StatusInTransit},
	{"in bewegung", StatusInTransit},
	{"en route", StatusInTransit},
	{"shipping", StatusInTransit},
	{"left", StatusInTransit},
	{"received at", StatusInTransit},
	{"accepted", StatusInTransit},
	{"dispatched", StatusInTransit},
	{"forwarded", StatusInTransit},
	{"sorted", StatusInTransit},
	{"hub", StatusInTransit},
	{"facility", StatusInTransit},
	{"customs", StatusInTransit},
	{"export", StatusInTransit},
	{"import", StatusInTransit},

	// Info received
	{"label created", StatusInfoReceived},
	{"shipment information", StatusInfoReceived},
	{"electronic notification", StatusInfoReceived},
	{"pre-shipment", StatusInfoReceived},
	{"order received", StatusInfoReceived},
	{"picked up", StatusInfoReceived},

	// Failed
	{"failed", StatusFailed},
	{"cancelled", StatusFailed},
	{"lost", StatusFailed},
}

// InferStatus classifies a free-text status phrase into a canonical status.
// Returns StatusUnknown when no keyword matches.
func InferStatus(text string) TrackingStatus {
	lower := strings.ToLower(text)

	for _, entry := range statusKeywords {
		if strings.Contains(lower, entry.keyword) {
			return entry.status
		}
	}

	return StatusUnknown
}
