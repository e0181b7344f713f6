package settings

import (
	"fmt"
	"strings"

	"wave-portal/config"
	"wave-portal/styles"

	"github.com/charmbracelet/lipgloss"
)

// Info is the read-only part of the settings page
type Info struct {
	Contract   string
	GasLimit   uint64
	Explorer   string
	Wallet     string // provider name, empty when none
	ConfigPath string
	Authorized int
}

// Nav returns the navigation bar for settings view
func Nav(width int, settingsMode string) string {
	var left string
	if settingsMode == "add" {
		left = strings.Join([]string{
			styles.Key("Enter") + " save",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " activate",
			styles.Key("a") + " add",
			styles.Key("d") + " delete",
			styles.Key("l") + " debug log",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the settings view
func Render(rpcURLs []config.RPCUrl, selectedIdx int, info Info) string {
	muted := lipgloss.NewStyle().Foreground(styles.CMuted)
	lines := []string{styles.TitleStyle.Render("RPC Settings"), ""}

	if len(rpcURLs) == 0 {
		lines = append(lines, muted.Render("No RPC URLs configured."))
		lines = append(lines, "")
		lines = append(lines, muted.Render("Press ")+styles.Key("a")+muted.Render(" to add one, or set ")+
			lipgloss.NewStyle().Foreground(styles.CAccent).Render("ETH_RPC_URL")+muted.Render("."))
	} else {
		for i, rpc := range rpcURLs {
			marker := muted.Render("○ ")
			if rpc.Active {
				marker = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ")
			}

			nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
			urlStyle := muted
			if i == selectedIdx {
				nameStyle = nameStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
				urlStyle = urlStyle.Background(styles.CPanel)
				marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Render("▶ ")
			}

			lines = append(lines, marker+nameStyle.Render(rpc.Name))
			lines = append(lines, "  "+urlStyle.Render(rpc.URL))
			lines = append(lines, "")
		}
	}

	wallet := info.Wallet
	if wallet == "" {
		wallet = "none (set WAVE_KEYSTORE_DIR or WAVE_PRIVATE_KEY)"
	}

	lines = append(lines, "", styles.TitleStyle.Render("Portal"), "")
	lines = append(lines, row("Contract", info.Contract))
	lines = append(lines, row("Gas limit", fmt.Sprintf("%d", info.GasLimit)))
	lines = append(lines, row("Explorer", info.Explorer))
	lines = append(lines, row("Wallet", wallet))
	lines = append(lines, row("Authorized", fmt.Sprintf("%d account(s)", info.Authorized)))
	lines = append(lines, row("Config", info.ConfigPath))

	return strings.Join(lines, "\n")
}

func row(label, value string) string {
	return fmt.Sprintf("%s  %s",
		lipgloss.NewStyle().Foreground(styles.CMuted).Width(11).Render(label),
		lipgloss.NewStyle().Foreground(styles.CText).Render(value),
	)
}
