package pickup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeSlot(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeSlot
		wantErr error
	}{
		{in: "9-11", want: Slot9To11},
		{in: " 15-17 ", want: Slot15To17},
		{in: "", wantErr: ErrMissingSlot},
		{in: "17-19", wantErr: ErrUnknownSlot},
		{in: "9:00 AM - 11:00 AM", wantErr: ErrUnknownSlot},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeSlot(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSlotLabels(t *testing.T) {
	var labels []string
	for _, s := range Slots() {
		labels = append(labels, s.Label())
	}
	assert.Equal(t, []string{
		"9:00 AM - 11:00 AM",
		"11:00 AM - 1:00 PM",
		"1:00 PM - 3:00 PM",
		"3:00 PM - 5:00 PM",
	}, labels)
	assert.Equal(t, "13:00 15:00", Slot13To15.ConfirmationRange())
}

func TestValidateDate_YesterdayRule(t *testing.T) {
	now := time.Date(2024, time.March, 1, 0, 30, 0, 0, time.UTC)

	assert.NoError(t, ValidateDate(Date{2024, time.March, 1}, now), "today")
	assert.NoError(t, ValidateDate(Date{2024, time.February, 29}, now), "yesterday")
	assert.NoError(t, ValidateDate(Date{2024, time.December, 31}, now), "future")
	assert.ErrorIs(t, ValidateDate(Date{2024, time.February, 28}, now), ErrDateInPast)
	assert.ErrorIs(t, ValidateDate(Date{}, now), ErrMissingDate)
}

func TestValidateDate_UsesLocationOfNow(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 20:00 UTC on March 1st is already March 2nd in Tokyo.
	now := time.Date(2024, time.March, 1, 20, 0, 0, 0, time.UTC).In(tokyo)

	assert.Equal(t, Date{2024, time.March, 1}, MinDate(now))
	assert.ErrorIs(t, ValidateDate(Date{2024, time.February, 29}, now), ErrDateInPast)
}

func TestDate_Formatting(t *testing.T) {
	d, err := ParseDate("2024-07-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04", d.String())
	assert.Equal(t, "7/4/2024", d.FormatUS())
	assert.Equal(t, Date{2024, time.August, 3}, d.AddDays(30))

	_, err = ParseDate("07/04/2024")
	assert.Error(t, err)
}

func TestSelection_Validate(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, Selection{Date: DateOf(now), Slot: Slot9To11}.Validate(now))
	assert.ErrorIs(t, Selection{Date: DateOf(now)}.Validate(now), ErrMissingSlot)
	assert.ErrorIs(t, Selection{Slot: Slot9To11}.Validate(now), ErrMissingDate)
	assert.ErrorIs(t, Selection{Date: DateOf(now), Slot: "1-2"}.Validate(now), ErrUnknownSlot)
}

func TestSimulatedScheduler_Confirm(t *testing.T) {
	s := NewSimulatedScheduler(time.Millisecond)
	sel := Selection{Date: Date{2024, time.July, 4}, Slot: Slot9To11}

	conf, err := s.Confirm(context.Background(), sel)
	require.NoError(t, err)
	assert.Equal(t, "Your pickup is confirmed for 7/4/2024 between 9:00 11:00. Thanks for helping the planet!", conf.Message)
	assert.Equal(t, sel.Date, conf.Date)
	assert.Equal(t, sel.Slot, conf.Slot)
}

func TestSimulatedScheduler_Cancelled(t *testing.T) {
	s := NewSimulatedScheduler(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Confirm(ctx, Selection{Date: Date{2024, time.July, 4}, Slot: Slot9To11})
	assert.ErrorIs(t, err, context.Canceled)
}
