package portal

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func at(sec int64) time.Time { return time.Unix(1640995200+sec, 0) }

func TestDisabled(t *testing.T) {
	tests := []struct {
		draft    string
		disabled bool
	}{
		{draft: "", disabled: true},
		{draft: "a", disabled: true},
		{draft: "ab", disabled: true},
		{draft: "abc", disabled: false},
		{draft: "Hi there", disabled: false},
		{draft: "hé", disabled: true},
		{draft: "👋👋👋", disabled: false},
	}
	for _, tt := range tests {
		t.Run(tt.draft, func(t *testing.T) {
			s := Reduce(State{}, DraftChanged{Text: tt.draft})
			assert.Equal(t, tt.disabled, s.Disabled())
		})
	}
}

func TestCanSubmit(t *testing.T) {
	s := State{Draft: "Hi there"}
	assert.False(t, s.CanSubmit(), "not connected")

	s.Account = alice
	assert.True(t, s.CanSubmit())

	s.Pending = true
	assert.False(t, s.CanSubmit(), "already pending")
}

func TestWavesFetchedNewestFirst(t *testing.T) {
	source := []Wave{
		{Sender: alice, Timestamp: at(0), Message: "one"},
		{Sender: bob, Timestamp: at(10), Message: "two"},
		{Sender: alice, Timestamp: at(20), Message: "three"},
	}
	s := Reduce(State{Count: 99}, WavesFetched{Waves: source})

	require.Len(t, s.Waves, 3)
	assert.Equal(t, []string{"three", "two", "one"}, messages(s.Waves))
	assert.Equal(t, len(s.Waves), s.Count)
	assert.Equal(t, "one", source[0].Message, "input must not be reordered")
}

func TestWavesFetchedTiesKeepLaterFirst(t *testing.T) {
	source := []Wave{
		{Sender: alice, Timestamp: at(5), Message: "first"},
		{Sender: bob, Timestamp: at(5), Message: "second"},
		{Sender: bob, Timestamp: at(5), Message: "third"},
	}
	s := Reduce(State{}, WavesFetched{Waves: source})
	assert.Equal(t, []string{"third", "second", "first"}, messages(s.Waves))
}

func TestWavesFetchedOutOfOrderTimestamps(t *testing.T) {
	source := []Wave{
		{Timestamp: at(30), Message: "late"},
		{Timestamp: at(10), Message: "early"},
	}
	s := Reduce(State{}, WavesFetched{Waves: source})
	assert.Equal(t, []string{"late", "early"}, messages(s.Waves))
}

func TestWaveReceivedPrepends(t *testing.T) {
	s := Reduce(State{}, WavesFetched{Waves: []Wave{
		{Timestamp: at(0), Message: "old"},
		{Timestamp: at(10), Message: "newer"},
	}})
	before := s.Waves
	s.Success = true

	s = Reduce(s, WaveReceived{Wave: Wave{Sender: bob, Timestamp: at(10), Message: "live"}})

	assert.Equal(t, []string{"live", "newer", "old"}, messages(s.Waves))
	assert.False(t, s.Success)
	assert.Equal(t, []string{"newer", "old"}, messages(before), "previous slice untouched")
}

func TestFetchFailedKeepsState(t *testing.T) {
	s := Reduce(State{}, WavesFetched{Waves: []Wave{{Timestamp: at(0), Message: "kept"}}})
	after := Reduce(s, FetchFailed{Err: errors.New("boom")})
	assert.Equal(t, s, after)
}

func TestSubmitTransitions(t *testing.T) {
	s := State{Account: alice, Draft: "Hi there", Count: 3}

	s = Reduce(s, SubmitStarted{})
	assert.True(t, s.Pending)
	assert.True(t, s.Success)

	failed := Reduce(s, SubmitFailed{Err: errors.New("rejected")})
	assert.False(t, failed.Pending)
	assert.False(t, failed.Success)
	assert.Equal(t, 3, failed.Count)

	hash := common.HexToHash("0xabc")
	mined := Reduce(s, SubmitMined{Count: 4, TxHash: hash})
	assert.False(t, mined.Pending)
	assert.True(t, mined.Success)
	assert.Equal(t, 4, mined.Count)
	assert.Equal(t, hash, mined.LastTx)
}

func TestAccountConnected(t *testing.T) {
	s := Reduce(State{}, AccountConnected{Account: alice})
	assert.True(t, s.Connected())
	assert.Equal(t, alice, s.Account)
}

func messages(waves []Wave) []string {
	out := make([]string, len(waves))
	for i, w := range waves {
		out[i] = w.Message
	}
	return out
}
