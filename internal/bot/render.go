package bot

import (
	"fmt"
	"strings"

	"github.com/raviprakash-14/scrapify/internal/catalog"
	"github.com/raviprakash-14/scrapify/internal/wizard"
)

func resultText(r *wizard.ResultView) string {
	text := formatReplyText(MsgResult,
		r.FormattedValue,
		escapeMarkdown(r.MaterialComposition),
		escapeMarkdown(r.Condition),
	)
	if r.Cached {
		text += "\n\n" + MsgResultCached
	}
	return text
}

func scheduleText(view wizard.View) string {
	date, slot := MsgNotSelected, MsgNotSelected
	if !view.Pickup.Date.IsZero() {
		date = view.Pickup.Date.FormatUS()
	}
	if view.Pickup.TimeSlot != "" {
		slot = view.Pickup.TimeSlot.Label()
	}
	return formatReplyText(MsgSchedule, date, slot)
}

func successText(view wizard.View) string {
	return formatReplyText(MsgSuccess, escapeMarkdown(view.Confirmation))
}

func noticeText(n *wizard.Notice) string {
	return fmt.Sprintf("*%s*\n%s", escapeMarkdown(n.Title), escapeMarkdown(n.Message))
}

var statIcons = map[string]string{
	"recycle":  "♻️",
	"leaf":     "🍃",
	"droplets": "💧",
	"award":    "🏆",
}

func dashboardText(d catalog.Dashboard) string {
	var sb strings.Builder
	sb.WriteString("*Dashboard*\n\n")
	for _, s := range d.Stats {
		icon, ok := statIcons[s.Icon]
		if !ok {
			icon = "•"
		}
		fmt.Fprintf(&sb, "%s *%s:* %s\n_%s_\n", icon, escapeMarkdown(s.Title), escapeMarkdown(s.Value), escapeMarkdown(s.Change))
	}
	if len(d.History) > 0 {
		sb.WriteString("\n*Monthly recycling*\n")
		for _, h := range d.History {
			fmt.Fprintf(&sb, "%s: %g kg\n", h.Label, h.Kg)
		}
	}
	if len(d.RecentActivity) > 0 {
		sb.WriteString("\n*Recent activity*\n")
		for _, a := range d.RecentActivity {
			fmt.Fprintf(&sb, "• %s, %g kg, +%d points (%s, %s)\n",
				escapeMarkdown(a.Item), a.Kg, a.Points, a.Date, escapeMarkdown(a.Status))
		}
	}
	return strings.TrimSpace(sb.String())
}

func rewardsText(r catalog.Rewards) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Rewards*\nYour balance: *%s*\n", r.BalanceLabel)
	for _, item := range r.Items {
		mark := ""
		if item.Redeemable {
			mark = " ✅"
		}
		fmt.Fprintf(&sb, "\n*%s* (%s)%s\n%s\n", escapeMarkdown(item.Name), item.PointsLabel, mark, escapeMarkdown(item.Description))
	}
	return strings.TrimSpace(sb.String())
}
