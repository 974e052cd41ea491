package hubspotdedup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the HubSpot public API endpoint.
const DefaultBaseURL = "https://api.hubapi.com"

// CRMClient defines the interface for the HubSpot contact operations used by the actions.
type CRMClient interface {
	GetContact(ctx context.Context, id ContactID, properties []string) (*Contact, error)
	SearchContacts(ctx context.Context, req *SearchRequest) (*SearchResponse, error)
	MergeContacts(ctx context.Context, req *MergeRequest) (*Contact, error)
	ListContacts(ctx context.Context, req *ListContactsRequest) (*ListContactsPage, error)
}

// HTTPClient calls the HubSpot REST API with a private app access token.
type HTTPClient struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *HTTPClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// WithRateLimit paces outgoing requests to rps per second with the given burst.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewHTTPClient creates a new HTTPClient for the given access token.
func NewHTTPClient(accessToken string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:     DefaultBaseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetContact fetches a single contact by ID with the requested properties.
func (c *HTTPClient) GetContact(ctx context.Context, id ContactID, properties []string) (*Contact, error) {
	q := url.Values{}
	if len(properties) > 0 {
		q.Set("properties", strings.Join(properties, ","))
	}
	path := "/crm/v3/objects/contacts/" + url.PathEscape(id.String())

	var contact Contact
	if err := c.do(ctx, "get contact", http.MethodGet, path, q, nil, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// SearchContacts runs a contact search.
func (c *HTTPClient) SearchContacts(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.do(ctx, "search contacts", http.MethodPost, "/crm/v3/objects/contacts/search", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MergeContacts merges req.ObjectIDToMerge into req.PrimaryObjectID.
func (c *HTTPClient) MergeContacts(ctx context.Context, req *MergeRequest) (*Contact, error) {
	var contact Contact
	if err := c.do(ctx, "merge contacts", http.MethodPost, "/crm/v3/objects/contacts/merge", nil, req, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListContacts fetches one page of contacts from a legacy contact list.
func (c *HTTPClient) ListContacts(ctx context.Context, req *ListContactsRequest) (*ListContactsPage, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(req.Count))
	if len(req.Properties) > 0 {
		q.Set("property", strings.Join(req.Properties, ","))
	}
	if req.PropertyMode != "" {
		q.Set("propertyMode", req.PropertyMode)
	}
	if req.FormSubmissionMode != "" {
		q.Set("formSubmissionMode", req.FormSubmissionMode)
	}
	q.Set("showListMemberships", strconv.FormatBool(req.ShowListMemberships))
	if req.VidOffset > 0 {
		q.Set("vidOffset", strconv.FormatInt(req.VidOffset, 10))
	}
	path := "/contacts/v1/lists/" + url.PathEscape(req.ListID.String()) + "/contacts/all"

	var page ListContactsPage
	if err := c.do(ctx, "list contacts", http.MethodGet, path, q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type errorBody struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Category      string `json:"category"`
	CorrelationID string `json:"correlationId"`
}

func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(op, resp, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

func newAPIError(op string, resp *http.Response, data []byte) *APIError {
	apiErr := &APIError{
		Operation:  op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}

	var eb errorBody
	if json.Unmarshal(data, &eb) == nil {
		apiErr.Message = eb.Message
		apiErr.Category = eb.Category
		apiErr.CorrelationID = eb.CorrelationID
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	return apiErr
}
