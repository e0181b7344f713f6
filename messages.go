package main

import (
	"wave-portal/portal"
	"wave-portal/rpc"

	"github.com/ethereum/go-ethereum/common"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// logInitMsg signals that log viewport should be initialized
type logInitMsg struct{}

// rpcConnectedMsg contains result of RPC connection attempt
type rpcConnectedMsg struct {
	url    string
	client *rpc.Client
	err    error
}

// silentConnectMsg carries the result of the startup reconnect
type silentConnectMsg struct {
	account common.Address
	ok      bool
}

// accountConnectedMsg is the outcome of an explicit connect
type accountConnectedMsg struct {
	account common.Address
	err     error
}

// portalEventMsg wraps a controller outcome for portal.Reduce
type portalEventMsg struct {
	ev portal.Event
}

// feedOpenedMsg carries a new NewWave feed
type feedOpenedMsg struct {
	feed *portal.Feed
	err  error
}

// waveDeliveredMsg is one live wave, stamped with the feed it came from
type waveDeliveredMsg struct {
	feedID uint64
	wave   portal.Wave
}

// feedClosedMsg reports that a feed's channel closed
type feedClosedMsg struct {
	feedID uint64
	err    error
}

// feedStoppedMsg reports that a closed feed finished shutting down
type feedStoppedMsg struct {
	feedID uint64
}

// accountLoadedMsg contains balance details for the connected account
type accountLoadedMsg struct {
	d rpc.AccountDetails
}

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	what string
}

// clearCopiedMsg clears clipboard feedback
type clearCopiedMsg struct{}
