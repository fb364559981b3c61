package core

import (
	"fmt"
	"strings"

	"vidcourier/internal/chat"
	"vidcourier/internal/i18n"
)

// maxButtonsPerRow keeps inline keyboards readable on narrow clients.
const maxButtonsPerRow = 3

// BuildListView renders the queue overview: one numbered line per item with
// a status marker, then action buttons matching each line. The same session
// state always renders to the same view, so refreshes are idempotent.
func BuildListView(session *Session, loc *i18n.Localizer) *chat.View {
	items := session.DisplayItems()
	if len(items) == 0 {
		return &chat.View{Text: loc.T("list.empty")}
	}

	var sb strings.Builder
	sb.WriteString(loc.T("list.header"))
	sb.WriteString("\n")

	var row []chat.Button
	var buttons [][]chat.Button

	flush := func() {
		if len(row) > 0 {
			buttons = append(buttons, row)
			row = nil
		}
	}

	for i, item := range items {
		n := i + 1
		sb.WriteString(fmt.Sprintf("%d. %s %s%s\n", n, statusEmoji(item.Status), item.Title, statusLabel(item.Status, loc)))

		for _, b := range itemButtons(n, item, loc) {
			row = append(row, b)
			if len(row) == maxButtonsPerRow {
				flush()
			}
		}
		flush()
	}

	buttons = append(buttons, []chat.Button{
		{Label: loc.T("button.clear"), Data: EncodeClearAll()},
	})

	return &chat.View{Text: sb.String(), Buttons: buttons}
}

// BuildQualityView renders the keyboard offered when an item exceeds the
// direct video limit.
func BuildQualityView(text string, loc *i18n.Localizer) *chat.View {
	return &chat.View{
		Text: text,
		Buttons: [][]chat.Button{
			{{Label: loc.T("button.quality_medium"), Data: EncodeQualityMedium()}},
			{{Label: loc.T("button.quality_lowest"), Data: EncodeQualityLowest()}},
			{
				{Label: loc.T("button.save_to_list"), Data: EncodeSave()},
				{Label: loc.T("button.cancel"), Data: EncodeCancel()},
			},
		},
	}
}

func itemButtons(n int, item *Item, loc *i18n.Localizer) []chat.Button {
	switch item.Status {
	case StatusPending, StatusFailedLastAttempt, StatusFailedSending:
		return []chat.Button{
			{Label: loc.T("button.download", n), Data: EncodeStart(item.ID)},
			{Label: loc.T("button.remove", n), Data: EncodeRemove(item.ID)},
		}
	case StatusParseFailed:
		return []chat.Button{
			{Label: loc.T("button.reparse", n), Data: EncodeReparse(item.ID)},
			{Label: loc.T("button.remove", n), Data: EncodeRemove(item.ID)},
		}
	default:
		// In-flight items get a passive marker button only.
		return []chat.Button{
			{Label: loc.T("button.view", n), Data: EncodeNoop()},
		}
	}
}

func statusEmoji(status Status) string {
	switch status {
	case StatusPending:
		return "✅"
	case StatusParseFailed:
		return "❌"
	case StatusFailedLastAttempt, StatusFailedSending:
		return "⚠️"
	case StatusDownloading, StatusAwaitingQuality:
		return "⬇️"
	case StatusSending:
		return "⬆️"
	default:
		return "▫️"
	}
}

func statusLabel(status Status, loc *i18n.Localizer) string {
	switch status {
	case StatusParseFailed:
		return " " + loc.T("status.parse_failed")
	case StatusFailedLastAttempt, StatusFailedSending:
		return " " + loc.T("status.download_failed")
	case StatusDownloading, StatusAwaitingQuality:
		return " " + loc.T("status.downloading")
	case StatusSending:
		return " " + loc.T("status.sending")
	default:
		return ""
	}
}
