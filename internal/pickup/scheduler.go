package pickup

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultConfirmDelay is how long SimulatedScheduler takes to confirm.
const DefaultConfirmDelay = 1500 * time.Millisecond

// Confirmation is the outcome of a scheduled pickup. It is not stored.
type Confirmation struct {
	Date    Date
	Slot    TimeSlot
	Message string
}

// ConfirmationMessage renders the text shown on the success screen.
func ConfirmationMessage(sel Selection) string {
	return fmt.Sprintf("Your pickup is confirmed for %s between %s. Thanks for helping the planet!",
		sel.Date.FormatUS(), sel.Slot.ConfirmationRange())
}

// Scheduler books a pickup for a validated selection.
type Scheduler interface {
	Confirm(ctx context.Context, sel Selection) (*Confirmation, error)
}

// SimulatedScheduler confirms every booking after a fixed delay. There is
// no pickup backend; nothing is sent or stored.
type SimulatedScheduler struct {
	Delay time.Duration
}

func NewSimulatedScheduler(delay time.Duration) *SimulatedScheduler {
	return &SimulatedScheduler{Delay: delay}
}

func (s *SimulatedScheduler) Confirm(ctx context.Context, sel Selection) (*Confirmation, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to confirm pickup: %w", ctx.Err())
		case <-timer.C:
		}
	}

	log.Info().
		Str("date", sel.Date.String()).
		Str("slot", string(sel.Slot)).
		Msg("pickup confirmed")

	return &Confirmation{
		Date:    sel.Date,
		Slot:    sel.Slot,
		Message: ConfirmationMessage(sel),
	}, nil
}
