package hubspotdedup

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Deduplicator merges contacts that share a name and a phone number or job title
// into a triggering contact.
type Deduplicator struct {
	client CRMClient

	Policy RetryPolicy
	Logger func(format string, args ...any)
}

// NewDeduplicator creates a new Deduplicator using the given CRM client.
func NewDeduplicator(client CRMClient) *Deduplicator {
	return &Deduplicator{
		client: client,
		Policy: DefaultRetryPolicy(),
	}
}

func (d *Deduplicator) logf(format string, args ...any) {
	if d.Logger != nil {
		d.Logger(format, args...)
	}
}

// dedupRun holds per-run state.
type dedupRun struct {
	d           *Deduplicator
	id          string
	triggering  ContactID
	rateLimited bool
	merged      []ContactID
	failures    MergeErrors
}

// Run deduplicates the contact identified by contactID. Failures are reported
// in the returned result rather than as an error.
func (d *Deduplicator) Run(ctx context.Context, contactID ContactID) *DedupResult {
	run := &dedupRun{
		d:          d,
		id:         uuid.NewString(),
		triggering: contactID,
	}

	err := run.execute(ctx)

	result := &DedupResult{
		ExecutionState:   StateSuccess,
		DuplicateFound:   flagOf(len(run.merged) > 0),
		RateLimit:        flagOf(run.rateLimited),
		MergedContactIDs: joinContactIDs(run.merged),
		ContactID:        contactID,
		RunID:            run.id,
		Merged:           run.merged,
		MergeFailures:    run.failures,
	}
	if err != nil {
		d.logf("[%s] dedup of contact %s failed: %v", run.id, contactID, err)
		result.ExecutionState = StateError
		result.DuplicateFound = FlagNo
		result.Error = err.Error()
		if result.Error == "" {
			result.Error = "an error occurred during execution"
		}
	}
	return result
}

func (r *dedupRun) execute(ctx context.Context) error {
	if !r.triggering.IsValid() {
		return errors.New("invalid contact id: " + r.triggering.String())
	}

	contact, err := callWithRetry(ctx, r, func() (*Contact, error) {
		return r.d.client.GetContact(ctx, r.triggering, DedupProperties)
	})
	if err != nil {
		return err
	}
	if contact == nil || contact.Properties == nil {
		return errors.New(ErrorContactDetails)
	}

	firstName, lastName := contact.FirstName(), contact.LastName()

	for _, phone := range PhoneCandidates(contact.Phone()) {
		if err := r.searchAndMerge(ctx, firstName, lastName, PropertyPhone, phone); err != nil {
			return err
		}
	}

	if title := contact.JobTitle(); title != "" {
		if err := r.searchAndMerge(ctx, firstName, lastName, PropertyJobTitle, title); err != nil {
			return err
		}
	}

	return nil
}

func (r *dedupRun) searchAndMerge(ctx context.Context, firstName, lastName, property, value string) error {
	req := duplicateSearch(firstName, lastName, property, value)
	results, err := callWithRetry(ctx, r, func() (*SearchResponse, error) {
		return r.d.client.SearchContacts(ctx, req)
	})
	if err != nil {
		return err
	}

	if r.d.Logger != nil {
		if data, err := json.Marshal(results); err == nil {
			r.d.logf("[%s] search results for %s %q: %s", r.id, property, value, data)
		}
	}

	r.processResults(ctx, results)
	return nil
}

func (r *dedupRun) processResults(ctx context.Context, results *SearchResponse) {
	if results == nil || results.Total <= 0 {
		return
	}

	for _, match := range results.Results {
		if match.ID == r.triggering || slices.Contains(r.merged, match.ID) {
			continue
		}

		req := &MergeRequest{PrimaryObjectID: r.triggering, ObjectIDToMerge: match.ID}
		_, err := callWithRetry(ctx, r, func() (*Contact, error) {
			return r.d.client.MergeContacts(ctx, req)
		})
		if err != nil {
			r.d.logf("[%s] failed to merge contact %s: %v", r.id, match.ID, err)
			r.failures.Errors = append(r.failures.Errors, MergeError{ContactID: match.ID, Err: err})
			continue
		}

		r.d.logf("[%s] merged contact %s into triggering contact %s", r.id, match.ID, r.triggering)
		r.merged = append(r.merged, match.ID)
	}
}

func duplicateSearch(firstName, lastName, property, value string) *SearchRequest {
	return &SearchRequest{
		FilterGroups: []FilterGroup{{
			Filters: []Filter{
				{PropertyName: PropertyFirstName, Operator: OperatorEQ, Value: firstName},
				{PropertyName: PropertyLastName, Operator: OperatorEQ, Value: lastName},
				{PropertyName: property, Operator: OperatorEQ, Value: value},
			},
		}},
		Properties: DedupProperties,
	}
}

// callWithRetry wraps retry and records the run's rate-limit status.
func callWithRetry[T any](ctx context.Context, r *dedupRun, fn func() (T, error)) (T, error) {
	result, err := retry(ctx, r.d.Policy, func(attempt int, delay time.Duration, err error) {
		r.rateLimited = true
		r.d.logf("[%s] rate limited (attempt %d), waiting %s before retrying", r.id, attempt, delay)
	}, fn)
	if err == nil {
		r.rateLimited = false
	} else if IsRateLimited(err) {
		r.rateLimited = true
	}
	return result, err
}
