package hubspotdedup

import (
	"errors"
	"net/http"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "with message and category",
			err:  &APIError{Operation: "get contact", StatusCode: 404, Status: "404 Not Found", Message: "resource not found", Category: "OBJECT_NOT_FOUND"},
			want: "get contact: HTTP 404 OBJECT_NOT_FOUND: resource not found",
		},
		{
			name: "status only",
			err:  &APIError{Operation: "search contacts", StatusCode: 429, Status: "429 Too Many Requests"},
			want: "search contacts: HTTP 429: 429 Too Many Requests",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("APIError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMergeError_Error(t *testing.T) {
	me := MergeError{
		ContactID: ContactID("101"),
		Err:       errors.New("API error"),
	}

	got := me.Error()
	want := "[101] API error"
	if got != want {
		t.Errorf("MergeError.Error() = %v, want %v", got, want)
	}
}

func TestMergeError_Unwrap(t *testing.T) {
	underlying := &APIError{StatusCode: http.StatusTooManyRequests}
	me := MergeError{ContactID: ContactID("101"), Err: underlying}

	if me.Unwrap() != underlying {
		t.Error("MergeError.Unwrap() should return underlying error")
	}
	if !IsRateLimited(me) {
		t.Error("IsRateLimited should see the 429 through Unwrap")
	}
}

func TestMergeErrors_Error_Single(t *testing.T) {
	me := MergeErrors{
		Errors: []MergeError{
			{ContactID: "101", Err: errors.New("conflict")},
		},
	}

	got := me.Error()
	want := "[101] conflict"
	if got != want {
		t.Errorf("MergeErrors.Error() single = %v, want %v", got, want)
	}
}

func TestMergeErrors_Error_Multiple(t *testing.T) {
	me := MergeErrors{
		Errors: []MergeError{
			{ContactID: "101", Err: errors.New("conflict")},
			{ContactID: "202", Err: errors.New("timeout")},
		},
	}

	got := me.Error()
	want := "2 merges failed: [101] conflict; [202] timeout"
	if got != want {
		t.Errorf("MergeErrors.Error() multiple = %v, want %v", got, want)
	}
}

func TestMergeErrors_ContactIDs(t *testing.T) {
	me := MergeErrors{
		Errors: []MergeError{
			{ContactID: "101", Err: errors.New("error1")},
			{ContactID: "202", Err: errors.New("error2")},
		},
	}

	ids := me.ContactIDs()
	if len(ids) != 2 {
		t.Fatalf("MergeErrors.ContactIDs() length = %v, want 2", len(ids))
	}
	if ids[0] != "101" || ids[1] != "202" {
		t.Errorf("MergeErrors.ContactIDs() = %v, want [101 202]", ids)
	}
	if me.Len() != 2 {
		t.Errorf("MergeErrors.Len() = %d, want 2", me.Len())
	}
}
