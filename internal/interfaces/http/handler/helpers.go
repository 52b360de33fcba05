package handler

import (
	"time"

	"github.com/google/uuid"
)

// dateLayouts are the date formats accepted in request bodies and query
// strings, tried in order
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// parseDate parses a request date in any accepted layout
func parseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// parseOptionalDate parses a date when present, returning nil otherwise
func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseOptionalUUID parses a UUID when present, returning nil otherwise
func parseOptionalUUID(value *string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
