package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/scottbrown/hubspot-contact-dedup/hubspotdedup"
	"go.uber.org/zap"
)

const (
	actionDedup = "dedup"
	actionList  = "list"
)

// Event is a workflow action invocation.
type Event struct {
	Action string `json:"action,omitempty"`
	Object struct {
		ObjectID   json.Number `json:"objectId"`
		ObjectType string      `json:"objectType,omitempty"`
	} `json:"object"`
	InputFields map[string]string `json:"inputFields,omitempty"`
	Secrets     map[string]string `json:"secrets,omitempty"`
	ListID      string            `json:"listId,omitempty"`
	VidOffset   int64             `json:"vidOffset,omitempty"`
}

// Response carries either the dedup output fields or a page of list contacts.
type Response struct {
	OutputFields *hubspotdedup.DedupResult
	Message      string
	Contacts     []hubspotdedup.ListContact
	HasMore      bool
	VidOffset    int64
}

type dedupResponse struct {
	OutputFields *hubspotdedup.DedupResult `json:"outputFields"`
}

type listResponse struct {
	Message   string                     `json:"message"`
	Contacts  []hubspotdedup.ListContact `json:"contacts"`
	HasMore   bool                       `json:"hasMore"`
	VidOffset int64                      `json:"vidOffset"`
}

// MarshalJSON writes {"outputFields": ...} for a dedup response and
// {"message", "contacts", ...} for a list response. A list response always
// carries a contacts array.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.OutputFields != nil {
		return json.Marshal(dedupResponse{OutputFields: r.OutputFields})
	}
	contacts := r.Contacts
	if contacts == nil {
		contacts = []hubspotdedup.ListContact{}
	}
	return json.Marshal(listResponse{
		Message:   r.Message,
		Contacts:  contacts,
		HasMore:   r.HasMore,
		VidOffset: r.VidOffset,
	})
}

type clientFactory func(token string) hubspotdedup.CRMClient

type handler struct {
	opts      Options
	logger    *zap.Logger
	secrets   hubspotdedup.SecretsClient
	newClient clientFactory
}

func newHandler(opts Options, logger *zap.Logger, secrets hubspotdedup.SecretsClient) *handler {
	return &handler{
		opts:    opts,
		logger:  logger,
		secrets: secrets,
		newClient: func(token string) hubspotdedup.CRMClient {
			return hubspotdedup.NewHTTPClient(token,
				hubspotdedup.WithBaseURL(opts.BaseURL),
				hubspotdedup.WithRateLimit(opts.RateLimit, 1),
			)
		},
	}
}

func (h *handler) policy() hubspotdedup.RetryPolicy {
	p := hubspotdedup.DefaultRetryPolicy()
	if h.opts.MaxRetries >= 0 {
		p.MaxRetries = h.opts.MaxRetries
	}
	return p
}

func (h *handler) action(ev Event) string {
	if a := strings.ToLower(strings.TrimSpace(ev.Action)); a != "" {
		return a
	}
	return strings.ToLower(h.opts.Action)
}

func (h *handler) client(ctx context.Context, ev Event) (hubspotdedup.CRMClient, error) {
	resolver := hubspotdedup.TokenResolver{
		Token:    ev.Secrets[hubspotdedup.SecretName],
		SecretID: h.opts.DedupSecretID,
		Getenv: func(name string) string {
			if name == hubspotdedup.SecretName {
				return h.opts.DedupSecret
			}
			return ""
		},
		Secrets: h.secrets,
	}
	token, err := resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	return h.newClient(token), nil
}

// Handle dispatches the event to the configured workflow action.
func (h *handler) Handle(ctx context.Context, ev Event) (Response, error) {
	switch h.action(ev) {
	case actionDedup:
		return h.dedup(ctx, ev), nil
	case actionList:
		return h.list(ctx, ev)
	default:
		return Response{}, fmt.Errorf("unknown action: %q", h.action(ev))
	}
}

func (h *handler) dedup(ctx context.Context, ev Event) Response {
	sugar := h.logger.Sugar()

	contactID, err := hubspotdedup.ParseContactID(ev.Object.ObjectID)
	if err != nil {
		return Response{OutputFields: errorResult(err)}
	}

	client, err := h.client(ctx, ev)
	if err != nil {
		return Response{OutputFields: errorResult(err)}
	}

	d := hubspotdedup.NewDeduplicator(client)
	d.Policy = h.policy()
	d.Logger = sugar.Infof

	result := d.Run(ctx, contactID)
	h.logger.Info("dedup finished",
		zap.String("contactId", contactID.String()),
		zap.String("runId", result.RunID),
		zap.String("state", string(result.ExecutionState)),
		zap.String("merged", result.MergedContactIDs),
		zap.Int("mergeFailures", result.MergeFailures.Len()),
	)
	return Response{OutputFields: result}
}

func (h *handler) list(ctx context.Context, ev Event) (Response, error) {
	listID := ev.ListID
	if listID == "" {
		listID = h.opts.ListID
	}

	client, err := h.client(ctx, ev)
	if err != nil {
		return Response{}, err
	}

	l := hubspotdedup.NewLister(client)
	l.Policy = h.policy()
	l.Logger = h.logger.Sugar().Infof

	req := hubspotdedup.NewListContactsRequest(hubspotdedup.ListID(listID))
	req.VidOffset = ev.VidOffset

	result, err := l.FetchResult(ctx, req)
	if err != nil {
		h.logger.Error("failed to fetch contacts", zap.String("listId", listID), zap.Error(err))
		return Response{}, err
	}

	return Response{
		Message:   result.Message,
		Contacts:  result.Contacts,
		HasMore:   result.HasMore,
		VidOffset: result.VidOffset,
	}, nil
}

func errorResult(err error) *hubspotdedup.DedupResult {
	return &hubspotdedup.DedupResult{
		ExecutionState: hubspotdedup.StateError,
		DuplicateFound: hubspotdedup.FlagNo,
		Error:          err.Error(),
		RateLimit:      hubspotdedup.FlagNo,
	}
}
