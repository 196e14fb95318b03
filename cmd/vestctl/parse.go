package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseWhen reads a point in time as Unix seconds, RFC 3339, "now", or an
// offset from now such as "+720h" or "-1h".
func parseWhen(s string, now time.Time) (int64, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return 0, fmt.Errorf("empty time")
	case s == "now":
		return now.Unix(), nil
	case strings.HasPrefix(s, "+") || (strings.HasPrefix(s, "-") && strings.ContainsAny(s, "hms")):
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("bad offset %q: %w", s, err)
		}
		return now.Add(d).Unix(), nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return 0, fmt.Errorf("bad time %q: want unix seconds, RFC 3339, now or +duration", s)
	}
	return t.Unix(), nil
}
