package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samirrijal/agrosight/internal/core/domain"
)

// ParseObservationDate accepts an RFC 3339 timestamp, a calendar date or
// epoch seconds/milliseconds, as a JSON string or number.
func ParseObservationDate(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, errors.New("response is missing date")
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return time.Time{}, fmt.Errorf("date %s is neither a string nor a number", raw)
		}
		text = num.String()
	}
	text = strings.TrimSpace(text)

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", domain.DateLayout} {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		// Millisecond timestamps have at least 12 digits from 1973 on.
		if len(strings.TrimPrefix(text, "-")) >= 12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", text)
}
