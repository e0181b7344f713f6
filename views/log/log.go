package log

import (
	"bytes"
	"fmt"
	"sync"

	"wave-portal/helpers"
	"wave-portal/styles"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// maxLines bounds how much history the panel keeps
const maxLines = 500

// Buffer collects log output for the panel. Commands log from their own
// goroutines, so writes and reads are serialized.
type Buffer struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	lines   int
	version uint64
}

// Write implements io.Writer
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := b.buf.Write(p)
	b.lines += bytes.Count(p, []byte{'\n'})
	for b.lines > maxLines {
		data := b.buf.Bytes()
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.buf.Next(i + 1)
		b.lines--
	}
	b.version++
	return n, err
}

// String returns the buffered output
func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Version changes on every write
func (b *Buffer) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Reset drops all buffered output
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
	b.lines = 0
	b.version++
}

// PanelHeight returns the viewport height for a terminal of the given height
func PanelHeight(height int) int {
	// header (3 lines), nav (1 line), title + borders (4 lines), margins (2 lines)
	reservedHeight := 10
	availableHeight := helpers.Max(5, height-reservedHeight)

	// at most 1/3 of the screen or 15 lines
	maxLogHeight := helpers.Min(height/3, 15)
	return helpers.Min(availableHeight, maxLogHeight)
}

// Render renders the log panel with dynamic height calculation
func Render(width, height int, logReady bool, logSpinnerView string, vp viewport.Model) string {
	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Render("Log")

	logPanelHeight := PanelHeight(height)
	vp.Height = logPanelHeight

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, width-2)).
		Height(logPanelHeight + 2) // +2 for title and spacing

	if !logReady {
		initMsg := "initializing...\n" + logSpinnerView
		return border.Render(title + "\n\n" + initMsg)
	}

	scrollInfo := ""
	if vp.TotalLineCount() > vp.Height {
		scrollInfo = lipgloss.NewStyle().
			Foreground(styles.CMuted).
			Render(fmt.Sprintf(" [%d%%]", int(vp.ScrollPercent()*100)))
	}

	return border.Render(title + scrollInfo + "\n\n" + vp.View())
}
