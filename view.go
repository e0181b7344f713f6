package main

import (
	"strings"

	"wave-portal/config"
	"wave-portal/helpers"
	"wave-portal/portal"
	"wave-portal/rpc"
	"wave-portal/styles"
	"wave-portal/views/details"
	logview "wave-portal/views/log"
	"wave-portal/views/settings"
	"wave-portal/views/waves"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

// historyWidth is the usable width of the history viewport
func historyWidth(w int) int {
	return helpers.Max(0, (w*65)/100-8)
}

func renderHistory(list []portal.Wave, width int) string {
	return waves.History(list, width)
}

func (m model) renderAlert() string {
	msg := helpers.FadeString(m.alert, styles.FadeFrom, styles.FadeTo)
	question := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, activeButtonStyle.MarginRight(0).Render("OK"))

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(ui),
	)
}

func (m model) renderRPCDeleteDialog() string {
	msg := helpers.FadeString("Are you sure you want to delete the RPC endpoint "+m.deleteRPCDialogName+"?", styles.FadeFrom, styles.FadeTo)
	question := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	var okButton, cancelButton string
	if m.deleteRPCDialogYesSelected {
		okButton = activeButtonStyle.Render("Yes")
		cancelButton = buttonStyle.Render("No")
	} else {
		okButton = buttonStyle.MarginRight(2).Render("Yes")
		cancelButton = activeButtonStyle.MarginRight(0).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, buttons)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(ui),
	)
}

func (m *model) renderTxContent() string {
	hash := m.state.LastTx.Hex()
	link := helpers.TxURL(m.env.ExplorerURL, hash)

	content := styles.TitleStyle.Render("Wave mined 🎉") + "\n\n"
	content += rpc.GenerateQRCode(link) + "\n"
	content += lipgloss.NewStyle().Foreground(cAccent).Render("Transaction:") + "\n\n"
	content += hash + "\n" + lipgloss.NewStyle().Foreground(cMuted).Underline(true).Render(link)

	content += "\n\n" + hintStyle.Render("Scan the QR code to open the transaction in a block explorer")
	content += "\n" + hintStyle.Render("Press c to copy the hash • ESC or Enter to close")

	if m.copiedMsg != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(cAccent).Bold(true).Render(m.copiedMsg)
	}
	return content
}

func (m *model) renderTxPanel() string {
	contentWidth := helpers.Max(0, m.w-8)
	centered := lipgloss.NewStyle().Width(contentWidth).Align(lipgloss.Center).Render(m.renderTxContent())
	content := panelStyle.Width(helpers.Max(0, m.w-4)).Render(centered)
	return appStyle.Render(lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		content,
	))
}

func (m *model) globalHeader() string {
	availableWidth := helpers.Max(0, m.w-8) // Account for panel padding

	var addrDisplay string
	if m.state.Connected() {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Account: " + helpers.FadeString(helpers.ShortenAddr(m.state.Account.Hex()), styles.FadeFrom, styles.FadeTo))
	} else {
		addrDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: not connected")
	}

	var statusIcon, statusText string
	var statusColor lipgloss.Color

	switch {
	case m.rpcURL == "":
		statusIcon, statusColor, statusText = "○", lipgloss.Color("#c01c28"), "No RPC"
	case m.rpcConnecting:
		statusIcon, statusColor, statusText = "○", lipgloss.Color("#c01c28"), "Connecting..."
	case !m.rpcConnected:
		statusIcon, statusColor, statusText = "○", lipgloss.Color("#c01c28"), "Connection Failed"
	default:
		statusIcon, statusColor = "●", cAccent
		for _, r := range m.cfg.RPCURLs {
			if r.Active && r.URL == m.rpcURL {
				statusText = r.Name
				break
			}
		}
		if statusText == "" {
			statusText = "Connected"
		}
		if m.feed != nil {
			statusText += " · live"
		}
	}

	rpcDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	titleText := lipgloss.NewStyle().
		Foreground(cAccent).
		Bold(true).
		Render(helpers.FadeString("wave portal", "#7EE787", "#82CFFD"))

	addrWidth := lipgloss.Width(addrDisplay)
	rpcWidth := lipgloss.Width(rpcDisplay)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := addrWidth + rpcWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		// Not enough space, stack vertically
		headerLine = addrDisplay + "\n" + titleText + "\n" + rpcDisplay
	} else {
		// Account | Title (centered) | RPC
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		headerLine = addrDisplay +
			strings.Repeat(" ", helpers.Max(1, leftPadding)) +
			titleText +
			strings.Repeat(" ", helpers.Max(1, rightPadding)) +
			rpcDisplay
	}

	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

func (m *model) renderWavesPage(availableHeight int) string {
	top := waves.Header(m.state) + "\n\n" + waves.Composer(m.state, m.input.View(), m.spin.View())

	if m.connectForm != nil {
		title := "Connect Wallet"
		if m.state.Connected() {
			title = "Unlock Wallet"
		}
		top = waves.Header(m.state) + "\n\n" + styles.TitleStyle.Render(title) + "\n\n" + m.connectForm.View()
	} else if m.connecting {
		top += "\n" + m.spin.View() + " waiting for the wallet…"
	}

	left := top
	if m.state.Connected() {
		heading := lipgloss.NewStyle().Foreground(cMuted).Render("Previously Sent Messages:")
		// panel border and padding (4) + heading and gap (3)
		m.wavesVP.Height = helpers.Max(3, availableHeight-lipgloss.Height(top)-7)
		left += "\n\n" + heading + "\n\n" + m.wavesVP.View()
	}

	walletName := ""
	if m.provider != nil {
		walletName = m.provider.Name()
	}
	acct := m.account
	if m.state.Connected() && acct.Address == "" {
		acct.Address = m.state.Account.Hex()
	}
	right := details.Render(acct, m.env.ExplorerURL, walletName, m.loadingAccount, m.copiedMsg, m.spin.View())

	listWidth := helpers.Max(0, (m.w*65)/100-2)
	detailsWidth := helpers.Max(0, (m.w*35)/100-2)

	leftPanel := panelStyle.Width(listWidth).Render(left)
	rightPanel := panelStyle.
		Width(detailsWidth + 1).
		Height(helpers.Max(0, lipgloss.Height(leftPanel)-2)).
		Render(right)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func (m *model) View() string {
	if m.alert != "" {
		return m.renderAlert()
	}
	if m.showTxPanel {
		return m.renderTxPanel()
	}

	headerPanel := panelStyle.Width(helpers.Max(0, m.w-2)).Render(m.globalHeader())

	var logPanel string
	logHeight := 0
	if m.logEnabled {
		m.logViewport.Height = logview.PanelHeight(m.h)
		logPanel = logview.Render(m.w, m.h, m.logReady, m.logSpinner.View(), m.logViewport)
		logHeight = lipgloss.Height(logPanel)
	}

	// header, nav and log panel are fixed
	availableHeight := m.h - lipgloss.Height(headerPanel) - 3 - logHeight

	var pageContent, nav string
	switch m.activePage {
	case config.PageWaves:
		pageContent = m.renderWavesPage(availableHeight)
		nav = waves.Nav(m.w-2, m.state, m.editing, m.needsUnlock())

	case config.PageSettings:
		walletName := ""
		if m.provider != nil {
			walletName = m.provider.Name()
		}
		settingsContent := settings.Render(m.cfg.RPCURLs, m.selectedRPCIdx, settings.Info{
			Contract:   m.env.ContractAddress,
			GasLimit:   m.env.GasLimit,
			Explorer:   m.env.ExplorerURL,
			Wallet:     walletName,
			ConfigPath: m.configPath,
			Authorized: len(m.cfg.Authorized),
		})
		if m.settingsMode == "add" && m.form != nil {
			settingsContent = styles.TitleStyle.Render("Add RPC Endpoint") + "\n\n" + m.form.View()
		}
		pageContent = panelStyle.Width(helpers.Max(0, m.w-2)).Render(settingsContent)
		nav = settings.Nav(m.w-2, m.settingsMode)

		if m.showRPCDeleteDialog {
			return m.renderRPCDeleteDialog()
		}
	}

	sections := []string{headerPanel, pageContent, nav}
	if logPanel != "" {
		sections = append(sections, logPanel)
	}
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
