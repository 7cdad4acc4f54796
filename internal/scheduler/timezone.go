package scheduler

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

var ErrInvalidTimezone = errors.New("invalid time zone")

var offsetPattern = regexp.MustCompile(`^(?i:UTC|GMT)?\s*([+-])(\d{1,2})(?::?(\d{2}))?$`)

// LoadLocation accepts IANA names ("Europe/Moscow", "Etc/GMT-3") and bare
// UTC offsets ("+3", "-05:30", "UTC+03:00"). An empty name falls back to def.
func LoadLocation(name, def string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = def
	}
	if name == "" {
		return time.UTC, nil
	}

	if loc, err := time.LoadLocation(name); err == nil {
		return loc, nil
	}

	m := offsetPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%w: unknown name %q", ErrInvalidTimezone, name)
	}

	hours, _ := strconv.Atoi(m[2])
	minutes := 0
	if m[3] != "" {
		minutes, _ = strconv.Atoi(m[3])
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("%w: offset out of range %q", ErrInvalidTimezone, name)
	}

	offset := hours*3600 + minutes*60
	if m[1] == "-" {
		offset = -offset
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", m[1], hours, minutes), offset), nil
}
