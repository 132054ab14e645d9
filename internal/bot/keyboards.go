package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raviprakash-14/scrapify/internal/pickup"
	"github.com/raviprakash-14/scrapify/internal/wizard"
)

// Callback data. Telegram limits it to 64 bytes.
const (
	cbSchedule      = "est:schedule"
	cbNewEstimate   = "est:new"
	cbPickupDate    = "pickup:date:"
	cbPickupSlot    = "pickup:slot:"
	cbPickupConfirm = "pickup:confirm"
	cbPickupBack    = "pickup:back"
	cbScheduleAgain = "done:again"
	scheduleDays    = 7
	datesPerRow     = 3
	slotsPerRow     = 2
	selectedMarker  = "✅ "
)

func resultKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnSchedulePickup, cbSchedule),
			tgbotapi.NewInlineKeyboardButtonData(BtnStartNewEstimate, cbNewEstimate),
		),
	)
}

func successKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnScheduleAnother, cbScheduleAgain),
		),
	)
}

// scheduleDates returns the dates offered as buttons: today and the six
// days after it.
func scheduleDates(view wizard.View) []pickup.Date {
	today := view.Pickup.MinDate.AddDays(1)
	dates := make([]pickup.Date, scheduleDays)
	for i := range dates {
		dates[i] = today.AddDays(i)
	}
	return dates
}

func dateLabel(d pickup.Date) string {
	return fmt.Sprintf("%s %d/%d", d.Weekday().String()[:3], d.Month, d.Day)
}

func markSelected(label string, selected bool) string {
	if selected {
		return selectedMarker + label
	}
	return label
}

func scheduleKeyboard(view wizard.View) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	var row []tgbotapi.InlineKeyboardButton
	for _, d := range scheduleDates(view) {
		label := markSelected(dateLabel(d), d == view.Pickup.Date)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbPickupDate+d.String()))
		if len(row) == datesPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
		row = nil
	}

	for _, slot := range view.Pickup.Slots {
		label := markSelected(slot.Label, slot.Value == view.Pickup.TimeSlot)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbPickupSlot+string(slot.Value)))
		if len(row) == slotsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnConfirmPickup, cbPickupConfirm),
		tgbotapi.NewInlineKeyboardButtonData(BtnBackToEstimate, cbPickupBack),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parsePickupCallback splits pickup:date:<date> and pickup:slot:<slot>
// callback data.
func parsePickupCallback(data string) (kind, value string, ok bool) {
	rest, found := strings.CutPrefix(data, "pickup:")
	if !found {
		return "", "", false
	}
	kind, value, ok = strings.Cut(rest, ":")
	return kind, value, ok
}
