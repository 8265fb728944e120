// Package difficulty estimates how hard a route segment is from its physical
// profile: a quasi-static power model for the required effort, a critical
// power curve as the physiological reference, and a banded classification of
// the resulting score.
package difficulty

import (
	"errors"
	"strconv"
	"strings"
)

// ErrUnparseableDuration is returned when a best-known-time string does not
// match any accepted format.
var ErrUnparseableDuration = errors.New("unparseable duration")

// ParseDuration converts a best-known-time string into whole seconds.
//
// Accepted formats:
//   - "45" or "45s"  → seconds
//   - "5:30"         → minutes:seconds
//   - "1:23:45"      → hours:minutes:seconds
//
// Anything else (empty string, placeholder dashes, non-numeric components)
// returns ErrUnparseableDuration. The result is never negative; a literal
// "0" parses to zero and is left to the caller to reject.
func ParseDuration(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrUnparseableDuration
	}

	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		// Plain seconds, optionally with a trailing "s" unit.
		secs, err := parseComponent(strings.TrimSuffix(parts[0], "s"))
		if err != nil {
			return 0, err
		}
		return secs, nil
	case 2:
		mins, err := parseComponent(parts[0])
		if err != nil {
			return 0, err
		}
		secs, err := parseComponent(parts[1])
		if err != nil {
			return 0, err
		}
		return mins*60 + secs, nil
	case 3:
		hours, err := parseComponent(parts[0])
		if err != nil {
			return 0, err
		}
		mins, err := parseComponent(parts[1])
		if err != nil {
			return 0, err
		}
		secs, err := parseComponent(parts[2])
		if err != nil {
			return 0, err
		}
		return hours*3600 + mins*60 + secs, nil
	default:
		return 0, ErrUnparseableDuration
	}
}

// parseComponent parses a single non-negative integer component.
func parseComponent(s string) (int, error) {
	if s == "" {
		return 0, ErrUnparseableDuration
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, ErrUnparseableDuration
	}
	return n, nil
}
