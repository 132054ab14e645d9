package wizard

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/raviprakash-14/scrapify/internal/pickup"
	"github.com/raviprakash-14/scrapify/internal/valuation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Step is the wizard's current screen.
type Step string

const (
	StepForm     Step = "form"
	StepLoading  Step = "loading"
	StepResult   Step = "result"
	StepSchedule Step = "schedule"
	StepSuccess  Step = "success"
)

// InputMode is how the user supplies a photo on the form step.
type InputMode string

const (
	InputUpload InputMode = "upload"
	InputCamera InputMode = "camera"
)

// Wizard drives one user from item input through valuation to a confirmed
// pickup. All methods are safe for concurrent use. Outbound calls run
// without the lock held; while one is in flight every mutating method
// returns ErrBusy.
type Wizard struct {
	estimator       valuation.Estimator
	scheduler       pickup.Scheduler
	now             func() time.Time
	loc             *time.Location
	estimateTimeout time.Duration
	logger          zerolog.Logger

	mu           sync.Mutex
	step         Step
	inputMode    InputMode
	photo        *valuation.Photo
	description  string
	result       *valuation.Result
	cached       bool
	pickupDate   pickup.Date
	timeSlot     pickup.TimeSlot
	confirmation *pickup.Confirmation
	lastActive   time.Time
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) { w.now = now }
}

// WithLocation sets the location used for calendar dates. Defaults to
// time.Local.
func WithLocation(loc *time.Location) Option {
	return func(w *Wizard) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WithEstimateTimeout bounds each valuation call. Zero means no bound
// beyond the caller's context.
func WithEstimateTimeout(d time.Duration) Option {
	return func(w *Wizard) { w.estimateTimeout = d }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(w *Wizard) { w.logger = logger }
}

// New creates a wizard on the form step.
func New(estimator valuation.Estimator, scheduler pickup.Scheduler, opts ...Option) *Wizard {
	w := &Wizard{
		estimator: estimator,
		scheduler: scheduler,
		now:       time.Now,
		loc:       time.Local,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.mu.Lock()
	w.resetLocked()
	w.mu.Unlock()
	return w
}

func (w *Wizard) today() time.Time {
	return w.now().In(w.loc)
}

// resetLocked restores the initial form state. Callers must hold mu.
func (w *Wizard) resetLocked() {
	w.step = StepForm
	w.inputMode = InputUpload
	w.photo = nil
	w.description = ""
	w.result = nil
	w.cached = false
	w.pickupDate = pickup.DateOf(w.today())
	w.timeSlot = ""
	w.confirmation = nil
	w.lastActive = w.now()
}

// begin checks the busy rule and the allowed step, and records activity.
// Callers must hold mu.
func (w *Wizard) begin(allowed ...Step) error {
	if w.step == StepLoading {
		return ErrBusy
	}
	w.lastActive = w.now()
	if len(allowed) == 0 {
		return nil
	}
	for _, s := range allowed {
		if w.step == s {
			return nil
		}
	}
	return ErrWrongStep
}

// SetPhoto validates and stores encoded image data.
func (w *Wizard) SetPhoto(dataURI string) (View, error) {
	photo, err := valuation.ParseDataURI(dataURI)
	return w.setPhoto(photo, err)
}

// SetPhotoData validates and stores raw image bytes. An empty mimeType is
// detected from the data.
func (w *Wizard) SetPhotoData(data []byte, mimeType string) (View, error) {
	photo, err := valuation.NewPhoto(data, mimeType)
	return w.setPhoto(photo, err)
}

func (w *Wizard) setPhoto(photo *valuation.Photo, parseErr error) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(StepForm); err != nil {
		return w.viewLocked(), err
	}
	if parseErr != nil {
		return w.viewLocked(), invalidPhoto(parseErr)
	}
	w.photo = photo
	return w.viewLocked(), nil
}

func (w *Wizard) SetDescription(text string) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(StepForm); err != nil {
		return w.viewLocked(), err
	}
	w.description = text
	return w.viewLocked(), nil
}

func (w *Wizard) SetInputMode(mode InputMode) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(StepForm); err != nil {
		return w.viewLocked(), err
	}
	switch mode {
	case InputUpload, InputCamera:
		w.inputMode = mode
	default:
		return w.viewLocked(), invalidInputMode(string(mode))
	}
	return w.viewLocked(), nil
}

// Submit requests a valuation for the current photo and description. On
// success the wizard moves to the result step; on failure it returns to
// the form with its inputs intact. Every other operation is rejected with
// ErrBusy until the call returns, so its outcome always belongs to the
// current inputs.
func (w *Wizard) Submit(ctx context.Context) (View, error) {
	w.mu.Lock()
	if err := w.begin(StepForm); err != nil {
		defer w.mu.Unlock()
		return w.viewLocked(), err
	}
	description := strings.TrimSpace(w.description)
	if w.photo == nil || description == "" {
		defer w.mu.Unlock()
		return w.viewLocked(), missingEstimateInput()
	}
	req := valuation.Request{Photo: w.photo, Description: description}
	w.step = StepLoading
	w.result = nil
	w.cached = false
	w.mu.Unlock()

	if w.estimateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.estimateTimeout)
		defer cancel()
	}
	start := time.Now()
	estimation, err := w.estimator.Estimate(ctx, req)
	if err == nil && (estimation == nil || estimation.Result == nil) {
		err = errors.New("estimator returned no result")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActive = w.now()
	if err != nil {
		w.step = StepForm
		w.logger.Warn().Err(err).Dur("elapsed", time.Since(start)).Msg("estimate failed")
		return w.viewLocked(), estimationFailed(err)
	}
	w.result = estimation.Result
	w.cached = estimation.Cached
	w.step = StepResult
	w.logger.Info().
		Float64("estimatedValue", estimation.Result.EstimatedValue).
		Bool("cached", estimation.Cached).
		Dur("elapsed", time.Since(start)).
		Msg("estimate ready")
	return w.viewLocked(), nil
}

// ProceedToSchedule moves from the result to the pickup scheduling step.
func (w *Wizard) ProceedToSchedule() (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(StepResult); err != nil {
		return w.viewLocked(), err
	}
	w.step = StepSchedule
	return w.viewLocked(), nil
}

// BackToResult returns from scheduling to the estimate.
func (w *Wizard) BackToResult() (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(StepSchedule); err != nil {
		return w.viewLocked(), err
	}
	w.step = StepResult
	return w.viewLocked(), nil
}

// SelectDate sets the pickup date. Dates before yesterday are rejected
// and the previous date is kept.
func (w *Wizard) SelectDate(date pickup.Date) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(StepSchedule); err != nil {
		return w.viewLocked(), err
	}
	if err := pickup.ValidateDate(date, w.today()); err != nil {
		if errors.Is(err, pickup.ErrMissingDate) {
			return w.viewLocked(), missingPickupInput(err)
		}
		return w.viewLocked(), invalidPickupDate(err)
	}
	w.pickupDate = date
	return w.viewLocked(), nil
}

func (w *Wizard) SelectTimeSlot(slot pickup.TimeSlot) (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(StepSchedule); err != nil {
		return w.viewLocked(), err
	}
	parsed, err := pickup.ParseTimeSlot(string(slot))
	if err != nil {
		return w.viewLocked(), invalidTimeSlot(err)
	}
	w.timeSlot = parsed
	return w.viewLocked(), nil
}

// ConfirmPickup books the selected date and slot. Incomplete or stale
// selections keep the wizard on the schedule step.
func (w *Wizard) ConfirmPickup(ctx context.Context) (View, error) {
	w.mu.Lock()
	if err := w.begin(StepSchedule); err != nil {
		defer w.mu.Unlock()
		return w.viewLocked(), err
	}
	sel := pickup.Selection{Date: w.pickupDate, Slot: w.timeSlot}
	if err := sel.Validate(w.today()); err != nil {
		defer w.mu.Unlock()
		return w.viewLocked(), missingPickupInput(err)
	}
	w.step = StepLoading
	w.mu.Unlock()

	conf, err := w.scheduler.Confirm(ctx, sel)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActive = w.now()
	if err != nil {
		w.step = StepSchedule
		w.logger.Warn().Err(err).Msg("pickup confirmation failed")
		return w.viewLocked(), scheduleFailed(err)
	}
	w.confirmation = conf
	w.step = StepSuccess
	return w.viewLocked(), nil
}

// Reset returns to an empty form from any step except loading.
func (w *Wizard) Reset() (View, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.begin(); err != nil {
		return w.viewLocked(), err
	}
	w.resetLocked()
	return w.viewLocked(), nil
}

// View returns a snapshot of the wizard for rendering.
func (w *Wizard) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.viewLocked()
}

// Photo returns the stored photo, or nil.
func (w *Wizard) Photo() *valuation.Photo {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.photo
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Busy reports whether an outbound call is in flight.
func (w *Wizard) Busy() bool {
	return w.Step() == StepLoading
}

// LastActive returns the time of the last operation.
func (w *Wizard) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}
