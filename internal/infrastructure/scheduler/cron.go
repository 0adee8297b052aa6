package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CronExpression is a parsed 5-field cron spec (minute, hour,
// day-of-month, month, day-of-week). It implements Schedule, so jobs
// that must run on wall-clock boundaries (hourly snapshots, nightly
// audits) register with one of these instead of an IntervalSchedule.
//
// Each part of a field may be "*", a value, or a range, optionally
// with a "/step" suffix; parts are combined with commas:
//
//   - "*/5 * * * *"       every 5 minutes
//   - "0 4 * * *"         every day at 04:00
//   - "15,45 8-17 * * 1-5" twice an hour during weekday work hours
//
// Matching values are stored as bitmasks, one bit per minute/hour/etc.
type CronExpression struct {
	raw      string
	minutes  uint64
	hours    uint64
	days     uint64
	months   uint64
	weekdays uint64
}

var cronFields = []struct {
	name string
	min  int
	max  int
}{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day", 1, 31},
	{"month", 1, 12},
	{"weekday", 0, 6},
}

// ParseCronExpression parses a cron expression string.
func ParseCronExpression(expr string) (*CronExpression, error) {
	fields := strings.Fields(expr)
	if len(fields) != len(cronFields) {
		return nil, fmt.Errorf("invalid cron expression: expected 5 fields, got %d", len(fields))
	}

	masks := make([]uint64, len(cronFields))
	for i, spec := range cronFields {
		mask, err := parseCronField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		masks[i] = mask
	}

	return &CronExpression{
		raw:      expr,
		minutes:  masks[0],
		hours:    masks[1],
		days:     masks[2],
		months:   masks[3],
		weekdays: masks[4],
	}, nil
}

// MustParseCronExpression parses a cron expression or panics.
// For package-level defaults known valid at compile time.
func MustParseCronExpression(expr string) *CronExpression {
	ce, err := ParseCronExpression(expr)
	if err != nil {
		panic(err)
	}
	return ce
}

// parseCronField turns one comma-separated field into a bitmask.
func parseCronField(field string, min, max int) (uint64, error) {
	var mask uint64
	for _, part := range strings.Split(field, ",") {
		m, err := parseCronPart(strings.TrimSpace(part), min, max)
		if err != nil {
			return 0, err
		}
		mask |= m
	}
	if mask == 0 {
		return 0, fmt.Errorf("empty field %q", field)
	}
	return mask, nil
}

// parseCronPart handles one "*", "n", "n-m" part with an optional
// "/step" suffix. "n/step" runs from n to the field maximum.
func parseCronPart(part string, min, max int) (uint64, error) {
	step := 1
	hasStep := false
	if slash := strings.IndexByte(part, '/'); slash >= 0 {
		s, err := strconv.Atoi(part[slash+1:])
		if err != nil || s <= 0 {
			return 0, fmt.Errorf("invalid step in %q", part)
		}
		step = s
		hasStep = true
		part = part[:slash]
	}

	lo, hi := min, max
	switch {
	case part == "*":
		// full range
	case strings.Contains(part, "-"):
		bounds := strings.SplitN(part, "-", 2)
		start, err1 := strconv.Atoi(bounds[0])
		end, err2 := strconv.Atoi(bounds[1])
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid range %q", part)
		}
		if start < min || end > max || start > end {
			return 0, fmt.Errorf("range %q out of bounds [%d-%d]", part, min, max)
		}
		lo, hi = start, end
	default:
		v, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q", part)
		}
		if v < min || v > max {
			return 0, fmt.Errorf("value %d out of range [%d-%d]", v, min, max)
		}
		lo = v
		if hasStep {
			hi = max
		} else {
			hi = v
		}
	}

	var mask uint64
	for i := lo; i <= hi; i += step {
		mask |= 1 << uint(i)
	}
	return mask, nil
}

// String returns the original cron expression.
func (ce *CronExpression) String() string {
	return ce.raw
}

// Next returns the first matching minute strictly after the given time.
func (ce *CronExpression) Next(after time.Time) time.Time {
	t := after.Add(time.Minute).Truncate(time.Minute)

	// A valid expression matches within a year; the bound guards
	// against walking forever on an impossible day/month combination.
	limit := t.AddDate(1, 0, 1)
	for ; t.Before(limit); t = t.Add(time.Minute) {
		if ce.matches(t) {
			return t
		}
	}
	return time.Time{}
}

func (ce *CronExpression) matches(t time.Time) bool {
	return ce.minutes&bit(t.Minute()) != 0 &&
		ce.hours&bit(t.Hour()) != 0 &&
		ce.days&bit(t.Day()) != 0 &&
		ce.months&bit(int(t.Month())) != 0 &&
		ce.weekdays&bit(int(t.Weekday())) != 0
}

func bit(v int) uint64 {
	return 1 << uint(v)
}
