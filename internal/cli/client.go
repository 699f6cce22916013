package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"parcel-tracking/internal/handlers"
	"parcel-tracking/internal/parser"
)

// Client represents an HTTP client for the tracking API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with the default timeout
func NewClient(baseURL string) *Client {
	return NewClientWithTimeout(baseURL, 60*time.Second)
}

// NewClientWithTimeout creates a new API client. The timeout covers the
// whole request; scraping lookups can take a while, so callers should pass
// the configured request timeout rather than something short.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError represents an error from the API
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}

// TrackRequest represents a tracking lookup request
type TrackRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier,omitempty"`
	ForceRefresh   bool   `json:"forceRefresh,omitempty"`
	UseFallback    bool   `json:"useFallback,omitempty"`
}

// doRequest performs an HTTP request and handles errors
func (c *Client) doRequest(method, path string, body interface{}) (*http.Response, error) {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	// Handle API errors
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()

		var errResp handlers.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
			return nil, &APIError{Code: resp.StatusCode, Message: resp.Status}
		}
		return nil, &APIError{Code: resp.StatusCode, Message: errResp.Error}
	}

	return resp, nil
}

// HealthCheck checks if the API server is healthy
func (c *Client) HealthCheck() error {
	resp, err := c.doRequest("GET", "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Track looks up a tracking number
func (c *Client) Track(req *TrackRequest) (*handlers.TrackResponse, error) {
	resp, err := c.doRequest("POST", "/api/track", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result handlers.TrackResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

// GetCarriers returns the carrier catalog
func (c *Client) GetCarriers() ([]handlers.CarrierInfo, error) {
	resp, err := c.doRequest("GET", "/api/carriers", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var carriers []handlers.CarrierInfo
	if err := json.NewDecoder(resp.Body).Decode(&carriers); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return carriers, nil
}

// Parse extracts tracking numbers from free text
func (c *Client) Parse(content string) (*parser.Extraction, error) {
	resp, err := c.doRequest("POST", "/api/parse", handlers.ParseRequest{Content: content})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var extraction parser.Extraction
	if err := json.NewDecoder(resp.Body).Decode(&extraction); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &extraction, nil
}
