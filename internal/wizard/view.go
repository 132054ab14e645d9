package wizard

import (
	"github.com/raviprakash-14/scrapify/internal/pickup"
)

// View is a render-ready snapshot of a Wizard.
type View struct {
	Step          Step        `json:"step"`
	Busy          bool        `json:"busy"`
	InputMode     InputMode   `json:"inputMode"`
	Description   string      `json:"description"`
	HasPhoto      bool        `json:"hasPhoto"`
	PhotoMIMEType string      `json:"photoMimeType,omitempty"`
	Result        *ResultView `json:"result,omitempty"`
	Pickup        PickupView  `json:"pickup"`
	Confirmation  string      `json:"confirmation,omitempty"`
}

type ResultView struct {
	EstimatedValue      float64 `json:"estimatedValue"`
	FormattedValue      string  `json:"formattedValue"` // "$42.50"
	MaterialComposition string  `json:"materialComposition"`
	Condition           string  `json:"condition"`
	Cached              bool    `json:"cached"`
}

type PickupView struct {
	Date     pickup.Date     `json:"date"`
	MinDate  pickup.Date     `json:"minDate"`
	TimeSlot pickup.TimeSlot `json:"timeSlot"`
	Slots    []SlotView      `json:"slots"`
}

type SlotView struct {
	Value pickup.TimeSlot `json:"value"`
	Label string          `json:"label"`
}

func slotViews() []SlotView {
	slots := pickup.Slots()
	out := make([]SlotView, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotView{Value: s, Label: s.Label()})
	}
	return out
}

// viewLocked builds a View. Callers must hold mu.
func (w *Wizard) viewLocked() View {
	v := View{
		Step:        w.step,
		Busy:        w.step == StepLoading,
		InputMode:   w.inputMode,
		Description: w.description,
		HasPhoto:    w.photo != nil,
		Pickup: PickupView{
			Date:     w.pickupDate,
			MinDate:  pickup.MinDate(w.today()),
			TimeSlot: w.timeSlot,
			Slots:    slotViews(),
		},
	}
	if w.photo != nil {
		v.PhotoMIMEType = w.photo.MIMEType
	}
	if w.result != nil {
		v.Result = &ResultView{
			EstimatedValue:      w.result.EstimatedValue,
			FormattedValue:      w.result.FormattedValue(),
			MaterialComposition: w.result.MaterialComposition,
			Condition:           w.result.Condition,
			Cached:              w.cached,
		}
	}
	if w.confirmation != nil {
		v.Confirmation = w.confirmation.Message
	}
	return v
}
