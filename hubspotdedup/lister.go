package hubspotdedup

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultListCount          = 25
	MaxListCount              = 100
	DefaultPropertyMode       = "value_only"
	DefaultFormSubmissionMode = "newest"
	ListFetchedMessage        = "Fetched contacts successfully."
)

// DefaultListProperties are the properties requested for list fetches.
var DefaultListProperties = []string{PropertyFirstName, PropertyLastName, PropertyEmail, PropertyPhone}

var (
	validPropertyModes       = map[string]bool{"value_only": true, "value_and_history": true}
	validFormSubmissionModes = map[string]bool{"all": true, "none": true, "newest": true, "oldest": true}
)

// Lister fetches pages of contacts from a contact list.
type Lister struct {
	client CRMClient

	Policy RetryPolicy
	Logger func(format string, args ...any)
}

// NewLister creates a new Lister using the given CRM client.
func NewLister(client CRMClient) *Lister {
	return &Lister{
		client: client,
		Policy: DefaultRetryPolicy(),
	}
}

func (l *Lister) logf(format string, args ...any) {
	if l.Logger != nil {
		l.Logger(format, args...)
	}
}

// NewListContactsRequest returns a request for listID with default parameters.
func NewListContactsRequest(listID ListID) ListContactsRequest {
	return ListContactsRequest{
		ListID:             listID,
		Count:              DefaultListCount,
		Properties:         DefaultListProperties,
		PropertyMode:       DefaultPropertyMode,
		FormSubmissionMode: DefaultFormSubmissionMode,
	}
}

func (req ListContactsRequest) withDefaults() ListContactsRequest {
	if req.Count == 0 {
		req.Count = DefaultListCount
	}
	if len(req.Properties) == 0 {
		req.Properties = DefaultListProperties
	}
	if req.PropertyMode == "" {
		req.PropertyMode = DefaultPropertyMode
	}
	if req.FormSubmissionMode == "" {
		req.FormSubmissionMode = DefaultFormSubmissionMode
	}
	return req
}

// Validate checks the request parameters.
func (req ListContactsRequest) Validate() error {
	if !req.ListID.IsValid() {
		return fmt.Errorf("invalid list id: %q", req.ListID)
	}
	if req.Count < 1 || req.Count > MaxListCount {
		return fmt.Errorf("count must be between 1 and %d, got %d", MaxListCount, req.Count)
	}
	if !validPropertyModes[req.PropertyMode] {
		return fmt.Errorf("invalid property mode: %s", req.PropertyMode)
	}
	if !validFormSubmissionModes[req.FormSubmissionMode] {
		return fmt.Errorf("invalid form submission mode: %s", req.FormSubmissionMode)
	}
	if req.VidOffset < 0 {
		return fmt.Errorf("vid offset must not be negative")
	}
	return nil
}

// Fetch retrieves one page of contacts from the list described by req.
func (l *Lister) Fetch(ctx context.Context, req ListContactsRequest) (*ListContactsPage, error) {
	req = req.withDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	page, err := retry(ctx, l.Policy, func(attempt int, delay time.Duration, err error) {
		l.logf("rate limited fetching list %s (attempt %d), waiting %s before retrying", req.ListID, attempt, delay)
	}, func() (*ListContactsPage, error) {
		return l.client.ListContacts(ctx, &req)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts from list %s: %w", req.ListID, err)
	}
	if page == nil {
		page = &ListContactsPage{}
	}
	if page.Contacts == nil {
		page.Contacts = make([]ListContact, 0)
	}

	l.logf("fetched %d contacts from list ID %s", len(page.Contacts), req.ListID)
	return page, nil
}

// FetchResult fetches a page and wraps it as the action's output.
func (l *Lister) FetchResult(ctx context.Context, req ListContactsRequest) (*ListResult, error) {
	page, err := l.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Message:   ListFetchedMessage,
		Contacts:  page.Contacts,
		HasMore:   page.HasMore,
		VidOffset: page.VidOffset,
	}, nil
}
