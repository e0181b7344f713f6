package waves

import (
	"strings"
	"testing"
	"time"

	"wave-portal/portal"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

var sender = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

func TestHeader(t *testing.T) {
	out := Header(portal.State{})
	assert.NotContains(t, out, "Number of messages")
	assert.NotContains(t, out, "Thank you!")

	out = Header(portal.State{Count: 7, Success: true})
	assert.Contains(t, out, "Number of messages sent to me:")
	assert.Contains(t, out, "7")
	assert.Contains(t, out, "Thank you!")
}

func TestComposer(t *testing.T) {
	assert.Contains(t, Composer(portal.State{}, "INPUT", ""), "Connect Wallet")

	connected := portal.State{Account: sender, Draft: "Hi there"}
	out := Composer(connected, "INPUT", "")
	assert.Contains(t, out, "INPUT")
	assert.Contains(t, out, "Send")

	connected.Pending = true
	assert.Contains(t, Composer(connected, "INPUT", "*"), "Loading...")
}

func TestHistory(t *testing.T) {
	assert.Contains(t, History(nil, 80), "No messages yet")

	out := History([]portal.Wave{
		{Sender: sender, Timestamp: time.Unix(1640995200, 0), Message: "newest"},
		{Sender: sender, Timestamp: time.Unix(1640995100, 0), Message: "older"},
	}, 80)
	assert.Contains(t, out, sender.Hex())
	assert.Less(t, strings.Index(out, "newest"), strings.Index(out, "older"))
}

func TestNavUnlockHint(t *testing.T) {
	connected := portal.State{Account: sender}
	assert.NotContains(t, Nav(120, connected, false, false), "unlock")
	assert.Contains(t, Nav(120, connected, false, true), "unlock")
	assert.Contains(t, Nav(120, portal.State{}, false, false), "connect wallet")
}
