package hubspotdedup

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// ReportGenerator generates markdown reports from action results.
type ReportGenerator struct {
	dedup  *DedupResult
	list   *ListResult
	listID ListID

	IncludeDetails bool
}

// NewDedupReport creates a ReportGenerator for a dedup run.
func NewDedupReport(result *DedupResult) *ReportGenerator {
	return &ReportGenerator{dedup: result}
}

// NewListReport creates a ReportGenerator for a list fetch.
func NewListReport(listID ListID, result *ListResult) *ReportGenerator {
	return &ReportGenerator{list: result, listID: listID}
}

// Generate writes a complete markdown report to the provided writer.
func (rg *ReportGenerator) Generate(w io.Writer) error {
	switch {
	case rg.dedup != nil:
		return rg.writeDedup(w)
	case rg.list != nil:
		return rg.writeList(w)
	}
	return fmt.Errorf("nothing to report")
}

func (rg *ReportGenerator) writeDedup(w io.Writer) error {
	r := rg.dedup

	_, err := fmt.Fprintf(w, "# Contact Dedup Report\n\n")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "**Contact:** %s\n", r.ContactID)
	if err != nil {
		return err
	}
	if r.RunID != "" {
		_, err = fmt.Fprintf(w, "**Run:** %s\n", r.RunID)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "**State:** %s\n", r.ExecutionState)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "**Duplicate Found:** %s\n", r.DuplicateFound)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "**Rate Limited:** %s\n\n", r.RateLimit)
	if err != nil {
		return err
	}

	if r.Error != "" {
		_, err = fmt.Fprintf(w, "**Error:** %s\n\n", escapeMarkdown(r.Error))
		if err != nil {
			return err
		}
	}

	_, err = fmt.Fprintf(w, "## Merged Contacts\n\n")
	if err != nil {
		return err
	}
	if len(r.Merged) == 0 {
		_, err = fmt.Fprintf(w, "No contacts merged.\n\n")
		if err != nil {
			return err
		}
	} else {
		for _, id := range r.Merged {
			_, err = fmt.Fprintf(w, "- %s\n", id)
			if err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, "\n")
		if err != nil {
			return err
		}
	}

	if r.MergeFailures.Len() == 0 {
		return nil
	}

	_, err = fmt.Fprintf(w, "## Failed Merges (%d)\n\n", r.MergeFailures.Len())
	if err != nil {
		return err
	}
	if !rg.IncludeDetails {
		ids := make([]string, 0, r.MergeFailures.Len())
		for _, id := range r.MergeFailures.ContactIDs() {
			ids = append(ids, id.String())
		}
		_, err = fmt.Fprintf(w, "%s\n\n", strings.Join(ids, ", "))
		return err
	}

	_, err = fmt.Fprintf(w, "| Contact | Error |\n")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "|---------|-------|\n")
	if err != nil {
		return err
	}
	for _, me := range r.MergeFailures.Errors {
		_, err = fmt.Fprintf(w, "| %s | %s |\n", me.ContactID, escapeMarkdown(me.Err.Error()))
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\n")
	return err
}

func (rg *ReportGenerator) writeList(w io.Writer) error {
	r := rg.list

	_, err := fmt.Fprintf(w, "# Contact List Report\n\n")
	if err != nil {
		return err
	}
	if rg.listID != "" {
		_, err = fmt.Fprintf(w, "**List:** %s\n", rg.listID)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "**Contacts:** %d\n", len(r.Contacts))
	if err != nil {
		return err
	}
	if r.HasMore {
		_, err = fmt.Fprintf(w, "**Next Offset:** %d\n", r.VidOffset)
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\n")
	if err != nil {
		return err
	}

	if len(r.Contacts) == 0 {
		_, err = fmt.Fprintf(w, "No contacts found.\n\n")
		return err
	}

	_, err = fmt.Fprintf(w, "| VID | First Name | Last Name | Email | Phone |\n")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "|-----|------------|-----------|-------|-------|\n")
	if err != nil {
		return err
	}
	for _, c := range r.Contacts {
		_, err = fmt.Fprintf(w, "| %d | %s | %s | %s | %s |\n",
			c.VID,
			cell(c.Property(PropertyFirstName)),
			cell(c.Property(PropertyLastName)),
			cell(c.Property(PropertyEmail)),
			cell(c.Property(PropertyPhone)))
		if err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "\n")
	if err != nil {
		return err
	}

	if !rg.IncludeDetails {
		return nil
	}
	return rg.writeListDetails(w)
}

func (rg *ReportGenerator) writeListDetails(w io.Writer) error {
	_, err := fmt.Fprintf(w, "## Contact Details\n\n")
	if err != nil {
		return err
	}

	for _, c := range rg.list.Contacts {
		_, err = fmt.Fprintf(w, "### %d\n\n", c.VID)
		if err != nil {
			return err
		}
		for _, name := range sortedPropertyNames(c.Properties) {
			_, err = fmt.Fprintf(w, "- **%s:** %s\n", name, escapeMarkdown(c.Property(name)))
			if err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, "\n")
		if err != nil {
			return err
		}
	}
	return nil
}

func sortedPropertyNames(props map[string]ListProperty) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cell(s string) string {
	if s == "" {
		return "-"
	}
	return escapeMarkdown(s)
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
