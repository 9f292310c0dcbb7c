package attendance

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/site-attendance/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type hoursForm int

const (
	hoursUnset hoursForm = iota
	hoursNumeric
	hoursClock
	hoursInvalid
)

// HoursInput is a raw hours value as supplied by a client: a number, a
// clock string such as "8:30", or something unparseable. It is normalised
// exactly once by NormalizeWorkingHours / NormalizeOvertimeHours.
type HoursInput struct {
	form     hoursForm
	numeric  decimal.Decimal
	hours    int
	minutes  int
	negative bool
	raw      string
}

func NumericHours(v float64) HoursInput {
	return HoursInput{form: hoursNumeric, numeric: decimal.NewFromFloat(v)}
}

func ClockHours(hours, minutes int) HoursInput {
	return HoursInput{form: hoursClock, hours: hours, minutes: minutes}
}

// ParseHours classifies a string value. Strings containing ':' are clock
// values, anything else must be a plain decimal.
func ParseHours(s string) HoursInput {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) != 2 {
			return HoursInput{form: hoursInvalid, raw: s}
		}
		hourPart := strings.TrimSpace(parts[0])
		h, errH := strconv.Atoi(hourPart)
		m, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errH != nil || errM != nil {
			return HoursInput{form: hoursInvalid, raw: s}
		}
		in := ClockHours(h, m)
		// "-0:30" parses to hour 0, so the sign is kept separately
		in.negative = strings.HasPrefix(hourPart, "-")
		return in
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return HoursInput{form: hoursInvalid, raw: s}
	}
	return HoursInput{form: hoursNumeric, numeric: d}
}

func (h HoursInput) IsSet() bool {
	return h.form != hoursUnset
}

// UnmarshalJSON accepts numbers and strings. Any other JSON value is kept as
// an invalid input so it surfaces as a validation error instead of a
// decoding failure.
func (h *HoursInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*h = HoursInput{}
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*h = ParseHours(s)
		return nil
	}

	d, err := decimal.NewFromString(string(b))
	if err != nil {
		*h = HoursInput{form: hoursInvalid, raw: string(b)}
		return nil
	}
	*h = HoursInput{form: hoursNumeric, numeric: d}
	return nil
}

func NormalizeWorkingHours(in HoursInput) (float64, error) {
	limit := decimal.NewFromFloat(MaxWorkingHours)
	return normalizeHours(in, "working_hours", &limit)
}

// NormalizeOvertimeHours has no upper bound.
func NormalizeOvertimeHours(in HoursInput) (float64, error) {
	return normalizeHours(in, "overtime_hours", nil)
}

func normalizeHours(in HoursInput, field string, limit *decimal.Decimal) (float64, error) {
	var value decimal.Decimal

	switch in.form {
	case hoursUnset:
		return 0, nil
	case hoursNumeric:
		value = in.numeric
	case hoursClock:
		if in.minutes < 0 || in.minutes >= 60 {
			return 0, validator.Single(field, "minutes must be between 0 and 59")
		}
		if in.negative || in.hours < 0 {
			return 0, validator.Single(field, field+" must not be negative")
		}
		value = decimal.NewFromInt(int64(in.hours)).
			Add(decimal.NewFromInt(int64(in.minutes)).Div(decimal.NewFromInt(60)))
	default:
		return 0, validator.Single(field, field+" must be a number or HH:MM")
	}

	value = value.Round(2)
	if value.IsNegative() {
		return 0, validator.Single(field, field+" must not be negative")
	}
	if limit != nil && value.GreaterThan(*limit) {
		return 0, validator.Single(field, field+" must not exceed "+limit.String()+" hours")
	}

	f, _ := value.Float64()
	return f, nil
}
