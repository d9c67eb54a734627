package oauthmodel

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Seconds is a lifetime as sent in expires_in. Providers disagree on the
// encoding, so fractional numbers and quoted numbers are accepted too.
// Fractions are truncated to whole seconds.
type Seconds int64

func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("[Seconds UnmarshalJSON] %w", err)
		}
		if raw == "" {
			*s = 0
			return nil
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("[Seconds UnmarshalJSON] invalid lifetime %q: %w", raw, err)
	}
	*s = Seconds(f)
	return nil
}

// Duration converts s to a time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s) * time.Second
}
