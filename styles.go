package main

import (
	"wave-portal/styles"
)

// -------------------- THEME (Lip Gloss) --------------------
// Styles now come from the styles package

var (
	cBorder  = styles.CBorder
	cMuted   = styles.CMuted
	cText    = styles.CText
	cAccent  = styles.CAccent
	cAccent2 = styles.CAccent2
	cWarn    = styles.CWarn
	cError   = styles.CError

	appStyle   = styles.AppStyle
	panelStyle = styles.PanelStyle
	hintStyle  = styles.HintStyle

	dialogBoxStyle    = styles.DialogBoxStyle
	buttonStyle       = styles.ButtonStyle
	activeButtonStyle = styles.ActiveButtonStyle
)
