package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField is wrapped by every ValidationError caused by an empty
// required field.
var ErrMissingField = errors.New("missing required field")

// ErrInvalidField is wrapped by every ValidationError caused by a value that
// is present but not acceptable.
var ErrInvalidField = errors.New("invalid field")

// ValidationError reports which field of which record failed.
type ValidationError struct {
	Entity string
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Entity, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func missing(entity, field string) error {
	return &ValidationError{Entity: entity, Field: field, Reason: "is required", Err: ErrMissingField}
}

func invalid(entity, field, format string, args ...any) error {
	return &ValidationError{Entity: entity, Field: field, Reason: fmt.Sprintf(format, args...), Err: ErrInvalidField}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func checkIDs(entity, field string, ids []int64) error {
	if len(ids) == 0 {
		return missing(entity, field)
	}
	for _, id := range ids {
		if id <= 0 {
			return invalid(entity, field, "id %d is not positive", id)
		}
	}
	return nil
}

// Validate checks a site create request before it is sent.
func (s NewSite) Validate() error {
	if blank(s.Name) {
		return missing("site", "name")
	}
	if blank(s.URL) {
		return missing("site", "url")
	}
	if s.SiteType != "" && !s.SiteType.Valid() {
		return invalid("site", "site_type", "unknown site type %q", s.SiteType)
	}
	return nil
}

// Validate checks a keyword create request before it is sent.
func (k NewKeyword) Validate() error {
	if blank(k.Keyword) {
		return missing("keyword", "keyword")
	}
	if k.Category != "" && !k.Category.Valid() {
		return invalid("keyword", "category", "unknown category %q", k.Category)
	}
	if k.Priority != 0 && (k.Priority < MinPriority || k.Priority > MaxPriority) {
		return invalid("keyword", "priority", "must be between %d and %d, got %d", MinPriority, MaxPriority, k.Priority)
	}
	return nil
}

// Validate checks a task create request before it is sent.
func (t NewTask) Validate() error {
	if blank(t.Name) {
		return missing("task", "name")
	}
	if blank(string(t.Frequency)) {
		return missing("task", "frequency")
	}
	if err := checkIDs("task", "site_ids", t.SiteIDs); err != nil {
		return err
	}
	return checkIDs("task", "keyword_ids", t.KeywordIDs)
}

// Normalized returns a copy of t with duplicate ids removed, first
// occurrence kept.
func (t NewTask) Normalized() NewTask {
	t.SiteIDs = uniqueIDs(t.SiteIDs)
	t.KeywordIDs = uniqueIDs(t.KeywordIDs)
	return t
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Received records are passed through as the backend sends them. Only the
// identity of each record is checked; free-form values such as site_type,
// category or an empty title are kept verbatim.

// Validate checks a site received from the backend.
func (s Site) Validate() error {
	return positiveID("site", s.ID)
}

// Validate checks a keyword received from the backend.
func (k Keyword) Validate() error {
	return positiveID("keyword", k.ID)
}

// Validate checks a task received from the backend. Referenced ids are not
// checked; the backend owns referential integrity.
func (t Task) Validate() error {
	return positiveID("task", t.ID)
}

// Validate checks a crawl result received from the backend. The crawl time
// is required since the dashboard counts results per day.
func (r Result) Validate() error {
	if err := positiveID("result", r.ID); err != nil {
		return err
	}
	if r.CrawledAt.IsZero() {
		return missing("result", "crawled_at")
	}
	return nil
}

func positiveID(entity string, id int64) error {
	if id <= 0 {
		return invalid(entity, "id", "must be positive, got %d", id)
	}
	return nil
}

// Validate checks that both credential fields are filled in.
func (c Credentials) Validate() error {
	if blank(c.Email) {
		return missing("credentials", "email")
	}
	if c.Password == "" {
		return missing("credentials", "password")
	}
	return nil
}
