// Package portal holds the wave portal view-model: an explicit State value,
// the events that change it and the Controller that produces those events
// from wallet and contract calls.
package portal

import (
	"sort"
	"time"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
)

// MinDraftLength is the exclusive lower bound on a sendable draft's length
const MinDraftLength = 2

// Wave is one message record
type Wave struct {
	Sender    common.Address
	Timestamp time.Time
	Message   string
}

// State is everything the UI renders about the portal
type State struct {
	Account common.Address
	Draft   string
	Waves   []Wave // newest first
	Count   int
	Pending bool
	Success bool
	LastTx  common.Hash
}

// Connected reports whether a wallet account is held
func (s State) Connected() bool {
	return s.Account != (common.Address{})
}

// Disabled reports whether the submit control is disabled for the current draft
func (s State) Disabled() bool {
	return !ValidDraft(s.Draft)
}

// CanSubmit reports whether a submit may start now
func (s State) CanSubmit() bool {
	return s.Connected() && !s.Disabled() && !s.Pending
}

// ValidDraft reports whether text is long enough to send
func ValidDraft(text string) bool {
	return utf8.RuneCountInString(text) > MinDraftLength
}

// Event is an input to Reduce
type Event interface {
	event()
}

type (
	// DraftChanged carries the current input text
	DraftChanged struct{ Text string }
	// AccountConnected is emitted by silent or explicit connection
	AccountConnected struct{ Account common.Address }
	// WavesFetched carries a full history in contract order (oldest first)
	WavesFetched struct{ Waves []Wave }
	// FetchFailed leaves state unchanged
	FetchFailed struct{ Err error }
	// SubmitStarted marks a wave transaction as in flight
	SubmitStarted struct{}
	// SubmitMined carries the re-read count after inclusion
	SubmitMined struct {
		Count  int
		TxHash common.Hash
	}
	// SubmitFailed rolls back the in-flight flags
	SubmitFailed struct{ Err error }
	// WaveReceived is one live NewWave delivery
	WaveReceived struct{ Wave Wave }
)

func (DraftChanged) event()     {}
func (AccountConnected) event() {}
func (WavesFetched) event()     {}
func (FetchFailed) event()      {}
func (SubmitStarted) event()    {}
func (SubmitMined) event()      {}
func (SubmitFailed) event()     {}
func (WaveReceived) event()     {}

// Reduce returns the state after ev. It never modifies s.Waves in place.
func Reduce(s State, ev Event) State {
	switch ev := ev.(type) {
	case DraftChanged:
		s.Draft = ev.Text
	case AccountConnected:
		s.Account = ev.Account
	case WavesFetched:
		waves := make([]Wave, len(ev.Waves))
		// reversed so later records win timestamp ties
		for i, w := range ev.Waves {
			waves[len(ev.Waves)-1-i] = w
		}
		sortNewestFirst(waves)
		s.Waves = waves
		s.Count = len(waves)
	case FetchFailed:
	case SubmitStarted:
		s.Pending = true
		s.Success = true
	case SubmitMined:
		s.Pending = false
		s.Count = ev.Count
		s.LastTx = ev.TxHash
	case SubmitFailed:
		s.Pending = false
		s.Success = false
	case WaveReceived:
		waves := make([]Wave, 0, len(s.Waves)+1)
		waves = append(waves, ev.Wave)
		waves = append(waves, s.Waves...)
		sortNewestFirst(waves)
		s.Waves = waves
		s.Success = false
	}
	return s
}

func sortNewestFirst(waves []Wave) {
	sort.SliceStable(waves, func(i, j int) bool {
		return waves[i].Timestamp.After(waves[j].Timestamp)
	})
}
