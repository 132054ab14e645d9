package pickup

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrMissingDate = errors.New("pickup date is required")
	ErrMissingSlot = errors.New("pickup time slot is required")
	ErrDateInPast  = errors.New("pickup date is in the past")
	ErrUnknownSlot = errors.New("unknown pickup time slot")
)

// TimeSlot is a two-hour pickup window, encoded as "<startHour>-<endHour>".
type TimeSlot string

const (
	Slot9To11  TimeSlot = "9-11"
	Slot11To13 TimeSlot = "11-13"
	Slot13To15 TimeSlot = "13-15"
	Slot15To17 TimeSlot = "15-17"
)

var slotLabels = map[TimeSlot]string{
	Slot9To11:  "9:00 AM - 11:00 AM",
	Slot11To13: "11:00 AM - 1:00 PM",
	Slot13To15: "1:00 PM - 3:00 PM",
	Slot15To17: "3:00 PM - 5:00 PM",
}

// Slots returns all pickup slots in chronological order.
func Slots() []TimeSlot {
	return []TimeSlot{Slot9To11, Slot11To13, Slot13To15, Slot15To17}
}

// ParseTimeSlot accepts a slot value such as "9-11". Surrounding
// whitespace is ignored.
func ParseTimeSlot(s string) (TimeSlot, error) {
	slot := TimeSlot(strings.TrimSpace(s))
	if slot == "" {
		return "", ErrMissingSlot
	}
	if !slot.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSlot, s)
	}
	return slot, nil
}

func (s TimeSlot) Valid() bool {
	_, ok := slotLabels[s]
	return ok
}

// Label returns the human readable window, e.g. "9:00 AM - 11:00 AM".
func (s TimeSlot) Label() string {
	return slotLabels[s]
}

// ConfirmationRange renders the slot the way confirmation messages show
// it: "9-11" becomes "9:00 11:00".
func (s TimeSlot) ConfirmationRange() string {
	return strings.Replace(string(s), "-", ":00 ", 1) + ":00"
}

// Date is a calendar date without a time of day or location.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.time().Format(dateLayout)
}

// FormatUS formats the date as M/D/YYYY.
func (d Date) FormatUS() string {
	return d.time().Format("1/2/2006")
}

// Weekday returns the day of the week of d.
func (d Date) Weekday() time.Weekday {
	return d.time().Weekday()
}

func (d Date) Before(other Date) bool {
	return d.time().Before(other.time())
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.time().AddDate(0, 0, n))
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MinDate is the earliest date a pickup can be booked for: yesterday,
// relative to now in now's location.
func MinDate(now time.Time) Date {
	return DateOf(now).AddDays(-1)
}

// ValidateDate rejects zero dates and dates earlier than yesterday.
func ValidateDate(d Date, now time.Time) error {
	if d.IsZero() {
		return ErrMissingDate
	}
	if d.Before(MinDate(now)) {
		return fmt.Errorf("%w: %s", ErrDateInPast, d)
	}
	return nil
}

// Selection is the pickup date and slot chosen by the user.
type Selection struct {
	Date Date
	Slot TimeSlot
}

func (s Selection) Validate(now time.Time) error {
	if err := ValidateDate(s.Date, now); err != nil {
		return err
	}
	if s.Slot == "" {
		return ErrMissingSlot
	}
	if !s.Slot.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSlot, s.Slot)
	}
	return nil
}
