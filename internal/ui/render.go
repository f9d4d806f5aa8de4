package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"advisor-chat/internal/chat"
	"advisor-chat/internal/domain"
	"advisor-chat/internal/richtext"
)

const typingIndicator = "AI is typing..."

var tabOrder = []domain.Category{domain.CategoryFinance, domain.CategoryLegal}

// RenderTabs draws the tab bar with the active tab highlighted.
func RenderTabs(active domain.Category) string {
	var b strings.Builder
	for i, tab := range tabOrder {
		if i > 0 {
			b.WriteString("  ")
		}
		label := fmt.Sprintf(" F%d %s ", i+1, tab.Title())
		if tab == active {
			b.WriteString("[black:" + tabColor(tab) + ":b]" + label + "[-:-:-]")
		} else {
			b.WriteString("[gray::]" + label + "[-:-:-]")
		}
	}
	return b.String()
}

// RenderTranscript converts a Session into tview markup. User text is always
// escaped. AI text goes through richtext.Parse so that only bold and line
// breaks are rendered; anything else the provider returns shows up literally.
func RenderTranscript(s chat.Session) string {
	var b strings.Builder
	for _, msg := range s.Transcript {
		switch msg.Role {
		case domain.RoleUser:
			b.WriteString("[blue::b]You:[-:-:-] ")
			b.WriteString(tview.Escape(msg.Content))
		default:
			b.WriteString("[green::b]Advisor:[-:-:-] ")
			b.WriteString(renderSegments(richtext.Parse(msg.Content)))
		}
		b.WriteString("\n\n")
	}
	if s.Pending {
		b.WriteString("[gray::i]" + typingIndicator + "[-:-:-]\n")
	}
	return b.String()
}

func renderSegments(segs []richtext.Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		switch seg.Kind {
		case richtext.KindBold:
			b.WriteString("[::b]" + tview.Escape(seg.Text) + "[::-]")
		case richtext.KindBreak:
			b.WriteString("\n")
		default:
			b.WriteString(tview.Escape(seg.Text))
		}
	}
	return b.String()
}

// Placeholder is the hint shown in the empty input field.
func Placeholder(category domain.Category) string {
	return fmt.Sprintf("Ask about %s matters...", domain.ParseCategory(string(category)))
}

func tabColor(tab domain.Category) string {
	if tab == domain.CategoryFinance {
		return "blue"
	}
	return "green"
}
