package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTrackingNumbers(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantNumber  string
		wantCarrier string
	}{
		{
			name:        "ups in prose",
			content:     "Your package 1Z999AA10123456784 has shipped!",
			wantNumber:  "1Z999AA10123456784",
			wantCarrier: "ups",
		},
		{
			name:        "usps international",
			content:     "Track it with EC123456789US today",
			wantNumber:  "EC123456789US",
			wantCarrier: "usps",
		},
		{
			name:        "amazon logistics",
			content:     "Amazon shipment TBA123456789012 is on its way",
			wantNumber:  "TBA123456789012",
			wantCarrier: "amazon",
		},
		{
			name:        "anpost irish format",
			content:     "An Post item LE123456789IE accepted",
			wantNumber:  "LE123456789IE",
			wantCarrier: "anpost",
		},
		{
			name:        "dhl ten digits",
			content:     "DHL waybill 1234567890 received",
			wantNumber:  "1234567890",
			wantCarrier: "dhl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extraction := NewExtractor().Extract(tt.content)
			require.NotEmpty(t, extraction.TrackingNumbers, "Extract() found no tracking numbers")

			got := extraction.TrackingNumbers[0]
			assert.Equal(t, tt.wantNumber, got.Number)
			assert.Equal(t, tt.wantCarrier, got.Carrier)
		})
	}
}

func TestExtractDeduplicates(t *testing.T) {
	content := "Tracking 1Z999AA10123456784 again: 1Z999AA10123456784"
	extraction := NewExtractor().Extract(content)

	assert.Len(t, extraction.TrackingNumbers, 1)
}

func TestExtractPatternPriority(t *testing.T) {
	// A 12-digit run matches both the FedEx and generic patterns; FedEx is
	// listed first and keeps it.
	extraction := NewExtractor().Extract("Shipment 123456789012 dispatched")

	require.Len(t, extraction.TrackingNumbers, 1)
	assert.Equal(t, "fedex", extraction.TrackingNumbers[0].Carrier)
}

func TestExtractMerchantName(t *testing.T) {
	extraction := NewExtractor().Extract("Your order from Acme Supplies. It ships tomorrow.")

	require.NotNil(t, extraction.MerchantName)
	assert.Equal(t, "Acme Supplies", *extraction.MerchantName)
}

func TestExtractOrderNumber(t *testing.T) {
	extraction := NewExtractor().Extract("Order #A-12345 confirmed")

	require.NotNil(t, extraction.OrderNumber)
	assert.Equal(t, "A-12345", *extraction.OrderNumber)
}

func TestExtractItemDescription(t *testing.T) {
	extraction := NewExtractor().Extract("Item: Wireless Keyboard\nThanks for shopping")

	require.NotNil(t, extraction.ItemDescription)
	assert.Equal(t, "Wireless Keyboard", *extraction.ItemDescription)
}

func TestExtractItemDescriptionTruncated(t *testing.T) {
	long := "Item: " + strings.Repeat("x", 300)
	extraction := NewExtractor().Extract(long)

	require.NotNil(t, extraction.ItemDescription)
	assert.Len(t, *extraction.ItemDescription, 100)
}

func TestExtractRawContentTruncated(t *testing.T) {
	extraction := NewExtractor().Extract(strings.Repeat("a", 1000))

	assert.Len(t, extraction.RawContent, 500)
}

func TestExtractNothing(t *testing.T) {
	extraction := NewExtractor().Extract("hello world")

	assert.Empty(t, extraction.TrackingNumbers)
	assert.Nil(t, extraction.OrderNumber)
	assert.Nil(t, extraction.ItemDescription)
}
