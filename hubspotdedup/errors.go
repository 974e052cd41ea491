package hubspotdedup

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorContactDetails is the Error output field of a run whose contact could
// not be loaded. Workflows branch on this exact text.
const ErrorContactDetails = "Failed to fetch contact details."

// ErrRateLimitExceeded is returned when a call is still rate limited after all retries.
var ErrRateLimitExceeded = errors.New("rate limit exceeded: max retries attempted")

// APIError represents a non-2xx response from the HubSpot API.
type APIError struct {
	Operation     string
	StatusCode    int
	Status        string
	Message       string
	Category      string
	CorrelationID string
	RetryAfter    time.Duration
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Status
	}
	if e.Category != "" {
		return fmt.Sprintf("%s: HTTP %d %s: %s", e.Operation, e.StatusCode, e.Category, msg)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Operation, e.StatusCode, msg)
}

// IsRateLimited reports whether err is an HTTP 429 response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// MergeError represents a failed merge of a single duplicate contact.
type MergeError struct {
	ContactID ContactID
	Err       error
}

func (me MergeError) Error() string {
	return fmt.Sprintf("[%s] %v", me.ContactID, me.Err)
}

func (me MergeError) Unwrap() error {
	return me.Err
}

// MergeErrors aggregates failed merges from a dedup run.
type MergeErrors struct {
	Errors []MergeError
}

func (me MergeErrors) Error() string {
	if len(me.Errors) == 1 {
		return me.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d merges failed: ", len(me.Errors)))
	for i, e := range me.Errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// ContactIDs returns the IDs of the contacts that failed to merge.
func (me MergeErrors) ContactIDs() []ContactID {
	ids := make([]ContactID, len(me.Errors))
	for i, e := range me.Errors {
		ids[i] = e.ContactID
	}
	return ids
}

// Len returns the number of failed merges.
func (me MergeErrors) Len() int {
	return len(me.Errors)
}
