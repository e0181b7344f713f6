package waves

import (
	"fmt"
	"strings"

	"wave-portal/helpers"
	"wave-portal/portal"
	"wave-portal/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for the waves view. locked means the
// connected account has to be unlocked before it can send.
func Nav(width int, s portal.State, editing bool, locked bool) string {
	var keys []string
	switch {
	case !s.Connected():
		keys = []string{
			styles.Key("c") + " connect wallet",
			styles.Key("s") + " settings",
			styles.Key("l") + " debug log",
			styles.Key("q") + " quit",
		}
	case editing:
		keys = []string{
			styles.Key("Enter") + " send",
			styles.Key("Tab") + " history",
			styles.Key("Esc") + " leave input",
		}
	default:
		keys = []string{styles.Key("i") + " write"}
		if locked {
			keys = append(keys, styles.Key("c")+" unlock")
		}
		keys = append(keys,
			styles.Key("↑/↓")+" scroll",
			styles.Key("r")+" refresh",
			styles.Key("a")+" account",
			styles.Key("s")+" settings",
			styles.Key("l")+" debug log",
			styles.Key("q")+" quit",
		)
	}
	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}

// Header renders the greeting, message count and thank-you banner
func Header(s portal.State) string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(helpers.FadeString("👋 Hey there!", styles.FadeFrom, styles.FadeTo)),
		"",
		lipgloss.NewStyle().Foreground(styles.CMuted).Render(
			"Connect your Ethereum wallet and send me a message! 1 in 4 senders wins 0.0001 ETH."),
	}

	if s.Count > 0 {
		lines = append(lines, "", fmt.Sprintf("%s %s",
			lipgloss.NewStyle().Foreground(styles.CMuted).Render("Number of messages sent to me:"),
			lipgloss.NewStyle().Foreground(styles.CAccent).Bold(true).Render(fmt.Sprintf("%d", s.Count)),
		))
	}

	if s.Success {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(styles.CAccent).Bold(true).Render("Thank you!"))
	}
	return strings.Join(lines, "\n")
}

// Composer renders the draft input and the Send button, or the connect
// button when no account is connected.
func Composer(s portal.State, inputView string, spinnerView string) string {
	if !s.Connected() {
		return Button("Connect Wallet", true, false)
	}

	label := "Send"
	if s.Pending {
		label = spinnerView + " Loading..."
	}
	return inputView + "\n" + Button(label, !s.Disabled() && !s.Pending, s.Pending)
}

// Button renders a push button; disabled buttons are dimmed
func Button(label string, enabled bool, busy bool) string {
	style := styles.ButtonStyle
	switch {
	case busy:
		style = style.Background(styles.CAccent2)
	case enabled:
		style = style.Background(lipgloss.Color(styles.FadeFrom)).Underline(true)
	default:
		style = style.Faint(true)
	}
	return style.Render(label)
}

// History renders the held waves, newest first, for the history viewport
func History(list []portal.Wave, width int) string {
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	if len(list) == 0 {
		return muted.Render("No messages yet. Be the first to wave!")
	}

	msgStyle := lipgloss.NewStyle().Foreground(styles.CText).Bold(true).Width(helpers.Max(10, width-10))
	blocks := make([]string, 0, len(list))
	for _, w := range list {
		blocks = append(blocks, strings.Join([]string{
			muted.Render("Address: ") + lipgloss.NewStyle().Foreground(styles.CAccent2).Render(w.Sender.Hex()),
			muted.Render("Time:    ") + helpers.FormatWaveTime(w.Timestamp),
			muted.Render("Message: ") + msgStyle.Render(w.Message),
		}, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}
