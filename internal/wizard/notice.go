package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned for any mutating call while an estimate or a
	// pickup confirmation is in flight.
	ErrBusy = errors.New("wizard is busy")
	// ErrWrongStep is returned when an operation is not allowed in the
	// current step.
	ErrWrongStep = errors.New("operation not allowed in current step")
)

// Kind classifies a Notice.
type Kind string

const (
	KindMissingInput     Kind = "missing_input"
	KindInvalidInput     Kind = "invalid_input"
	KindEstimationFailed Kind = "estimation_failed"
	KindScheduleInvalid  Kind = "schedule_invalid"
	KindScheduleFailed   Kind = "schedule_failed"
)

// Notice is a user-facing message (title and body) raised by a wizard
// operation. It is returned as an error; the wizard state it describes is
// already applied.
type Notice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    Kind   `json:"kind"`
	Err     error  `json:"-"`
}

func (n *Notice) Error() string {
	if n.Err != nil {
		return fmt.Sprintf("%s: %s: %v", n.Title, n.Message, n.Err)
	}
	return n.Title + ": " + n.Message
}

func (n *Notice) Unwrap() error {
	return n.Err
}

// AsNotice returns the Notice in err's chain, if any.
func AsNotice(err error) (*Notice, bool) {
	var n *Notice
	if errors.As(err, &n) {
		return n, true
	}
	return nil, false
}

func missingEstimateInput() *Notice {
	return &Notice{
		Title:   "Missing Information",
		Message: "Please provide a photo and a description.",
		Kind:    KindMissingInput,
	}
}

func estimationFailed(err error) *Notice {
	return &Notice{
		Title:   "Estimation Failed",
		Message: "Could not get an estimate. Please try again.",
		Kind:    KindEstimationFailed,
		Err:     err,
	}
}

func missingPickupInput(err error) *Notice {
	return &Notice{
		Title:   "Missing Information",
		Message: "Please select a pickup date and time.",
		Kind:    KindScheduleInvalid,
		Err:     err,
	}
}

func invalidPickupDate(err error) *Notice {
	return &Notice{
		Title:   "Invalid Date",
		Message: "The selected pickup date is no longer available.",
		Kind:    KindScheduleInvalid,
		Err:     err,
	}
}

func invalidTimeSlot(err error) *Notice {
	return &Notice{
		Title:   "Invalid Time Slot",
		Message: "Please choose one of the available time slots.",
		Kind:    KindInvalidInput,
		Err:     err,
	}
}

func invalidPhoto(err error) *Notice {
	return &Notice{
		Title:   "Invalid Photo",
		Message: "The photo could not be read. Please upload a JPEG, PNG, GIF or WebP image.",
		Kind:    KindInvalidInput,
		Err:     err,
	}
}

func invalidInputMode(mode string) *Notice {
	return &Notice{
		Title:   "Invalid Input Mode",
		Message: "Please choose upload or camera.",
		Kind:    KindInvalidInput,
		Err:     fmt.Errorf("unknown input mode %q", mode),
	}
}

func scheduleFailed(err error) *Notice {
	return &Notice{
		Title:   "Scheduling Failed",
		Message: "Could not schedule the pickup. Please try again.",
		Kind:    KindScheduleFailed,
		Err:     err,
	}
}
