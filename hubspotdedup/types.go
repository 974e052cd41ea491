package hubspotdedup

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var contactIDPattern = regexp.MustCompile(`^\d+$`)

// ContactID represents a HubSpot contact object ID.
type ContactID string

// String returns the string representation of the contact ID.
func (id ContactID) String() string {
	return string(id)
}

// IsValid checks if the contact ID is a non-empty decimal string.
func (id ContactID) IsValid() bool {
	return contactIDPattern.MatchString(string(id))
}

// ParseContactID converts a raw workflow object ID (string or number) into a ContactID.
func ParseContactID(v any) (ContactID, error) {
	var id ContactID
	switch t := v.(type) {
	case string:
		id = ContactID(strings.TrimSpace(t))
	case json.Number:
		id = ContactID(t.String())
	case float64:
		id = ContactID(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		id = ContactID(strconv.Itoa(t))
	case int64:
		id = ContactID(strconv.FormatInt(t, 10))
	default:
		return "", fmt.Errorf("unsupported contact id type %T", v)
	}
	if !id.IsValid() {
		return "", fmt.Errorf("invalid contact id: %q", id)
	}
	return id, nil
}

// Contact property names used by the dedup action.
const (
	PropertyFirstName = "firstname"
	PropertyLastName  = "lastname"
	PropertyPhone     = "phone"
	PropertyJobTitle  = "jobtitle"
	PropertyEmail     = "email"
)

// DedupProperties are the contact properties fetched and returned during deduplication.
var DedupProperties = []string{PropertyFirstName, PropertyLastName, PropertyPhone, PropertyJobTitle}

// Contact represents a HubSpot CRM contact object.
type Contact struct {
	ID         ContactID         `json:"id"`
	Properties map[string]string `json:"properties"`
	CreatedAt  time.Time         `json:"createdAt,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt,omitempty"`
	Archived   bool              `json:"archived,omitempty"`
}

// Property returns the named property value, or an empty string.
func (c *Contact) Property(name string) string {
	if c == nil || c.Properties == nil {
		return ""
	}
	return c.Properties[name]
}

// FirstName returns the contact's first name.
func (c *Contact) FirstName() string { return c.Property(PropertyFirstName) }

// LastName returns the contact's last name.
func (c *Contact) LastName() string { return c.Property(PropertyLastName) }

// Phone returns the contact's phone number as stored in HubSpot.
func (c *Contact) Phone() string { return c.Property(PropertyPhone) }

// JobTitle returns the contact's job title.
func (c *Contact) JobTitle() string { return c.Property(PropertyJobTitle) }

// Filter operators.
const (
	OperatorEQ = "EQ"
)

// Filter is a single property filter in a CRM search.
type Filter struct {
	PropertyName string `json:"propertyName"`
	Operator     string `json:"operator"`
	Value        string `json:"value"`
}

// FilterGroup ANDs its filters together. Multiple groups are ORed.
type FilterGroup struct {
	Filters []Filter `json:"filters"`
}

// SearchRequest is the body of a CRM contact search.
type SearchRequest struct {
	FilterGroups []FilterGroup `json:"filterGroups"`
	Properties   []string      `json:"properties,omitempty"`
	Limit        int           `json:"limit,omitempty"`
	After        string        `json:"after,omitempty"`
}

// Paging holds the cursor for the next page of search results.
type Paging struct {
	Next *struct {
		After string `json:"after"`
	} `json:"next,omitempty"`
}

// SearchResponse is the result of a CRM contact search.
type SearchResponse struct {
	Total   int       `json:"total"`
	Results []Contact `json:"results"`
	Paging  *Paging   `json:"paging,omitempty"`
}

// MergeRequest merges ObjectIDToMerge into PrimaryObjectID.
type MergeRequest struct {
	PrimaryObjectID ContactID `json:"primaryObjectId"`
	ObjectIDToMerge ContactID `json:"objectIdToMerge"`
}

// ListID identifies a legacy contact list.
type ListID string

// String returns the string representation of the list ID.
func (id ListID) String() string {
	return string(id)
}

// IsValid checks if the list ID is a non-empty decimal string.
func (id ListID) IsValid() bool {
	return contactIDPattern.MatchString(string(id))
}

// ListContactsRequest describes one page fetch from a contact list.
type ListContactsRequest struct {
	ListID              ListID
	Count               int
	Properties          []string
	PropertyMode        string
	FormSubmissionMode  string
	ShowListMemberships bool
	VidOffset           int64
}

// PropertyVersion is one historical value of a property, returned when the
// property mode is value_and_history.
type PropertyVersion struct {
	Value      string `json:"value"`
	SourceType string `json:"source-type,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
	Selected   bool   `json:"selected,omitempty"`
}

// ListProperty is a single property value in the legacy contacts API.
type ListProperty struct {
	Value    string            `json:"value"`
	Versions []PropertyVersion `json:"versions,omitempty"`
}

// ListContact is a contact as returned by the legacy list API.
//
// A contact decoded from JSON keeps the payload it was decoded from and
// marshals back to it unchanged, so fields without a typed counterpart
// (identity-profiles, list-memberships, form-submissions, ...) are passed
// through.
type ListContact struct {
	VID          int64                   `json:"vid"`
	CanonicalVID int64                   `json:"canonical-vid,omitempty"`
	Properties   map[string]ListProperty `json:"properties"`

	raw json.RawMessage
}

type listContactFields ListContact

// UnmarshalJSON decodes the typed fields and retains the raw payload.
func (lc *ListContact) UnmarshalJSON(data []byte) error {
	var fields listContactFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*lc = ListContact(fields)
	lc.raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the payload the contact was decoded from, or the typed
// fields for a contact built in code.
func (lc ListContact) MarshalJSON() ([]byte, error) {
	if len(lc.raw) > 0 {
		return lc.raw, nil
	}
	return json.Marshal(listContactFields(lc))
}

// Property returns the named property value, or an empty string.
func (lc ListContact) Property(name string) string {
	return lc.Properties[name].Value
}

// ListContactsPage is one page of contacts from a list.
type ListContactsPage struct {
	Contacts  []ListContact `json:"contacts"`
	HasMore   bool          `json:"has-more"`
	VidOffset int64         `json:"vid-offset"`
}

// ExecutionState is the workflow action's reported state.
type ExecutionState string

const (
	StateSuccess ExecutionState = "SUCCESS"
	StateError   ExecutionState = "ERROR"
)

// Flag is a YES/NO output field.
type Flag string

const (
	FlagYes Flag = "YES"
	FlagNo  Flag = "NO"
)

func flagOf(b bool) Flag {
	if b {
		return FlagYes
	}
	return FlagNo
}

// DedupResult holds the output fields of a dedup run.
type DedupResult struct {
	ExecutionState   ExecutionState `json:"hs_execution_state"`
	DuplicateFound   Flag           `json:"DuplicateFound"`
	Error            string         `json:"Error"`
	RateLimit        Flag           `json:"RateLimit"`
	MergedContactIDs string         `json:"Merged_Contact_IDs"`

	ContactID     ContactID   `json:"-"`
	RunID         string      `json:"-"`
	Merged        []ContactID `json:"-"`
	MergeFailures MergeErrors `json:"-"`
}

// ToJSON serializes the output fields to JSON.
func (r *DedupResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func joinContactIDs(ids []ContactID) string {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}
	return strings.Join(strs, ", ")
}

// ListResult is the output of the list action.
type ListResult struct {
	Message   string        `json:"message"`
	Contacts  []ListContact `json:"contacts"`
	HasMore   bool          `json:"hasMore"`
	VidOffset int64         `json:"vidOffset"`
}

// ToJSON serializes the list result to JSON.
func (lr *ListResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(lr, "", "  ")
}

// LoadListResultFromJSON deserializes a list result from JSON data.
func LoadListResultFromJSON(data []byte) (*ListResult, error) {
	var lr ListResult
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, err
	}
	return &lr, nil
}
