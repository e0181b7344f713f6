package details

import (
	"fmt"
	"strings"

	"wave-portal/helpers"
	"wave-portal/rpc"
	"wave-portal/styles"

	"github.com/charmbracelet/lipgloss"
)

// Render renders the connected account panel
func Render(d rpc.AccountDetails, explorer string, walletName string, loading bool, copiedMsg string, spinnerView string) string {
	h := styles.TitleStyle.Render("Account")
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)

	if d.Address == "" {
		if walletName == "" {
			return h + "\n\n" + lipgloss.NewStyle().Foreground(styles.CWarn).Render("No wallet found.") + "\n" +
				muted.Render("Set WAVE_KEYSTORE_DIR or WAVE_PRIVATE_KEY.")
		}
		return h + "\n\n" + muted.Render("Not connected.") + "\n" +
			muted.Render("Press ") + styles.Key("c") + muted.Render(" to connect with your "+walletName+".")
	}

	// OSC 8 hyperlink to the explorer: \x1b]8;;URL\x1b\\TEXT\x1b]8;;\x1b\\
	addrURL := strings.TrimRight(explorer, "/") + "/address/" + d.Address
	addrStyle := lipgloss.NewStyle().Foreground(styles.CMuted).Underline(true)
	sub := fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", addrURL, addrStyle.Render(helpers.ShortenAddr(d.Address)))

	if copiedMsg != "" {
		sub += "  " + lipgloss.NewStyle().Foreground(styles.CAccent).Render(copiedMsg)
	}

	if loading {
		return h + "\n" + sub + "\n\n" + spinnerView + " fetching balance…"
	}

	if d.ErrMessage != "" {
		msg := lipgloss.NewStyle().Foreground(styles.CWarn).Render("⚠ " + d.ErrMessage)
		return h + "\n" + sub + "\n\n" + msg
	}

	chain := "?"
	if d.ChainID != nil {
		chain = d.ChainID.String()
	}

	lines := []string{
		h,
		sub,
		"",
		fmt.Sprintf("%s  %s",
			lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("ETH  "),
			lipgloss.NewStyle().Foreground(styles.CText).Render(helpers.FormatETH(d.EthWei)),
		),
		fmt.Sprintf("%s  %s",
			lipgloss.NewStyle().Foreground(styles.CAccent2).Bold(true).Render("Chain"),
			lipgloss.NewStyle().Foreground(styles.CText).Render(chain),
		),
		"",
		muted.Render("via " + walletName + " · loaded " + helpers.LoadedAt(d.LoadedAt, loading)),
	}
	return strings.Join(lines, "\n")
}
