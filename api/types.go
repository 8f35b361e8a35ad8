// Package api provides a MediaWiki REST API client and adapters that feed
// fetched pages and templates into a conversion.
package api

import (
	"net/http"
	"time"
)

// Page is a page with its wikitext source, as returned by
// GET /v1/page/{title}.
type Page struct {
	ID           int       `json:"id"`
	Key          string    `json:"key"`
	Title        string    `json:"title"`
	Latest       *Revision `json:"latest,omitempty"`
	ContentModel string    `json:"content_model"`
	Source       string    `json:"source"`
}

// Revision identifies the revision a page was read at.
type Revision struct {
	ID        int  `json:"id"`
	Timestamp Time `json:"timestamp"`
}

// Time is a wrapper around time.Time for custom JSON parsing.
type Time struct {
	time.Time
}

// UnmarshalJSON parses the ISO 8601 timestamps the API returns.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)

	// Handle null or empty
	if s == "null" || s == `""` || s == "" {
		return nil
	}

	// Remove quotes if present
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}

	t.Time = parsed
	return nil
}

// MarshalJSON formats time in ISO 8601 format.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	StatusCode          int               `json:"httpCode"`
	Reason              string            `json:"httpReason,omitempty"`
	ErrorKey            string            `json:"errorKey"`
	MessageTranslations map[string]string `json:"messageTranslations,omitempty"`
}

func (e *ErrorResponse) Error() string {
	if msg := e.MessageTranslations["en"]; msg != "" {
		return msg
	}
	for _, msg := range e.MessageTranslations {
		return msg
	}
	if e.ErrorKey != "" {
		return e.ErrorKey
	}
	return http.StatusText(e.StatusCode)
}

// NotFound reports whether the error is a missing page.
func (e *ErrorResponse) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
