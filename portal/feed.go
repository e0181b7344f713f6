package portal

import (
	"sync"

	"wave-portal/contract"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/event"
)

// Feed is a live stream of NewWave deliveries. Every feed has a unique id so
// a consumer can drop deliveries from a feed it has already torn down.
type Feed struct {
	id  uint64
	out chan Wave
	sub event.Subscription
	err error

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newFeed(id uint64, sink <-chan *contract.NewWave, sub event.Subscription, logger *log.Logger) *Feed {
	f := &Feed{
		id:      id,
		out:     make(chan Wave),
		sub:     sub,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go f.run(sink, logger)
	return f
}

// ID identifies the feed
func (f *Feed) ID() uint64 {
	return f.id
}

// C delivers waves; it is closed when the feed ends
func (f *Feed) C() <-chan Wave {
	return f.out
}

// Err is the subscription error that ended the feed, if any.
// Only valid after C is closed.
func (f *Feed) Err() error {
	return f.err
}

// Close signals the feed to stop without waiting for the underlying
// subscription to shut down. Safe to call more than once.
func (f *Feed) Close() {
	f.once.Do(func() { close(f.done) })
}

// Done is closed once the feed and its subscription have shut down
func (f *Feed) Done() <-chan struct{} {
	return f.stopped
}

// Unsubscribe stops the feed and waits for it to shut down. Safe to call
// more than once.
func (f *Feed) Unsubscribe() {
	f.Close()
	<-f.stopped
}

func (f *Feed) run(sink <-chan *contract.NewWave, logger *log.Logger) {
	defer close(f.stopped)
	defer close(f.out)
	defer f.sub.Unsubscribe()

	for {
		select {
		case ev := <-sink:
			w := toWave(ev.From, ev.Timestamp, ev.Message)
			logger.Info("NewWave", "from", w.Sender.Hex(), "message", w.Message)
			select {
			case f.out <- w:
			case <-f.done:
				return
			}
		case err := <-f.sub.Err():
			if err != nil {
				logger.Error("NewWave subscription ended", "err", err)
			}
			f.err = err
			return
		case <-f.done:
			return
		}
	}
}
