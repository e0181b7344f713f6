package portal

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"wave-portal/contract"
	"wave-portal/wallet"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeBackend struct {
	waves    []contract.RawWave
	getErr   error
	total    *big.Int
	waveErr  error
	mineErr  error
	watchErr error
	subFail  chan error

	// when set, the subscription's shutdown blocks until it is closed
	release chan struct{}

	sent      []string
	gasLimits []uint64
	sink      chan<- *contract.NewWave
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1337), nil
}

func (f *fakeBackend) GetAllWaves(ctx context.Context) ([]contract.RawWave, error) {
	return f.waves, f.getErr
}

func (f *fakeBackend) GetTotalWaves(ctx context.Context) (*big.Int, error) {
	if f.total != nil {
		return f.total, nil
	}
	return big.NewInt(int64(len(f.waves))), nil
}

func (f *fakeBackend) Wave(opts *bind.TransactOpts, message string) (*types.Transaction, error) {
	if f.waveErr != nil {
		return nil, f.waveErr
	}
	f.sent = append(f.sent, message)
	f.gasLimits = append(f.gasLimits, opts.GasLimit)
	f.waves = append(f.waves, contract.RawWave{Waver: opts.From, Message: message, Timestamp: big.NewInt(time.Now().Unix())})
	return types.NewTx(&types.LegacyTx{Nonce: uint64(len(f.sent)), Gas: opts.GasLimit, GasPrice: big.NewInt(1)}), nil
}

func (f *fakeBackend) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if f.mineErr != nil {
		return nil, f.mineErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: tx.Hash()}, nil
}

func (f *fakeBackend) WatchNewWave(opts *bind.WatchOpts, sink chan<- *contract.NewWave) (event.Subscription, error) {
	if f.watchErr != nil {
		return nil, f.watchErr
	}
	f.sink = sink
	fail, release := f.subFail, f.release
	return event.NewSubscription(func(quit <-chan struct{}) error {
		select {
		case <-quit:
			if release != nil {
				<-release
			}
			return nil
		case err := <-fail:
			return err
		}
	}), nil
}

type fakeWallet struct {
	authorized    []common.Address
	accountsErr   error
	requestErr    error
	transactorErr error
}

func (w *fakeWallet) Name() string                { return "fake" }
func (w *fakeWallet) RequiresPassphrase() bool    { return false }
func (w *fakeWallet) Available() []common.Address { return []common.Address{alice} }

func (w *fakeWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	return w.authorized, w.accountsErr
}

func (w *fakeWallet) RequestAccounts(ctx context.Context, req wallet.AccessRequest) ([]common.Address, error) {
	if w.requestErr != nil {
		return nil, w.requestErr
	}
	return []common.Address{alice}, nil
}

func (w *fakeWallet) Transactor(ctx context.Context, account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if w.transactorErr != nil {
		return nil, w.transactorErr
	}
	return &bind.TransactOpts{From: account, Context: ctx}, nil
}

func TestDetectWallet(t *testing.T) {
	assert.False(t, New(nil, nil).DetectWallet())
	assert.True(t, New(nil, &fakeWallet{}).DetectWallet())
}

func TestSilentConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider", func(t *testing.T) {
		_, ok := New(nil, nil).SilentConnect(ctx)
		assert.False(t, ok)
	})

	t.Run("authorized account", func(t *testing.T) {
		acct, ok := New(nil, &fakeWallet{authorized: []common.Address{alice, bob}}).SilentConnect(ctx)
		assert.True(t, ok)
		assert.Equal(t, alice, acct)
	})

	t.Run("nothing authorized", func(t *testing.T) {
		_, ok := New(nil, &fakeWallet{}).SilentConnect(ctx)
		assert.False(t, ok)
	})

	t.Run("provider error is swallowed", func(t *testing.T) {
		_, ok := New(nil, &fakeWallet{accountsErr: errors.New("locked")}).SilentConnect(ctx)
		assert.False(t, ok)
	})
}

func TestConnect(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider", func(t *testing.T) {
		acct, err := New(nil, nil).Connect(ctx, wallet.AccessRequest{})
		assert.ErrorIs(t, err, wallet.ErrNoProvider)
		assert.Equal(t, common.Address{}, acct)
	})

	t.Run("rejected", func(t *testing.T) {
		_, err := New(nil, &fakeWallet{requestErr: wallet.ErrUserRejected}).Connect(ctx, wallet.AccessRequest{})
		assert.ErrorIs(t, err, wallet.ErrUserRejected)
	})

	t.Run("granted", func(t *testing.T) {
		acct, err := New(nil, &fakeWallet{}).Connect(ctx, wallet.AccessRequest{})
		require.NoError(t, err)
		assert.Equal(t, alice, acct)
	})
}

func TestFetchAllMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("no backend", func(t *testing.T) {
		ev := New(nil, nil).FetchAllMessages(ctx)
		failed, ok := ev.(FetchFailed)
		require.True(t, ok)
		assert.ErrorIs(t, failed.Err, ErrNoBackend)
	})

	t.Run("call failure leaves state", func(t *testing.T) {
		before := State{Account: alice, Count: 2, Waves: []Wave{{Message: "a"}, {Message: "b"}}}
		ev := New(&fakeBackend{getErr: errors.New("rpc down")}, nil).FetchAllMessages(ctx)
		assert.Equal(t, before, Reduce(before, ev))
	})

	t.Run("maps and orders records", func(t *testing.T) {
		backend := &fakeBackend{waves: []contract.RawWave{
			{Waver: alice, Message: "first", Timestamp: big.NewInt(1640995200)},
			{Waver: bob, Message: "second", Timestamp: big.NewInt(1640995260)},
		}}
		ev := New(backend, nil).FetchAllMessages(ctx)

		fetched, ok := ev.(WavesFetched)
		require.True(t, ok)
		require.Len(t, fetched.Waves, 2)
		assert.Equal(t, time.Unix(1640995200, 0), fetched.Waves[0].Timestamp)
		assert.Equal(t, alice, fetched.Waves[0].Sender)

		s := Reduce(State{}, ev)
		assert.Equal(t, []string{"second", "first"}, messages(s.Waves))
		assert.Equal(t, 2, s.Count)
	})
}

func TestSubmitMessageScenario(t *testing.T) {
	ctx := context.Background()
	backend := &fakeBackend{waves: []contract.RawWave{
		{Waver: bob, Message: "earlier", Timestamp: big.NewInt(1640995200)},
	}}
	c := New(backend, &fakeWallet{authorized: []common.Address{alice}})

	s := Reduce(State{}, AccountConnected{Account: alice})
	s = Reduce(s, c.FetchAllMessages(ctx))
	require.Equal(t, 1, s.Count)

	s = Reduce(s, DraftChanged{Text: "Hi there"})
	require.False(t, s.Disabled())

	s = Reduce(s, SubmitStarted{})
	assert.True(t, s.Pending)
	assert.True(t, s.Success)

	ev := c.SubmitMessage(ctx, s.Account, s.Draft)
	mined, ok := ev.(SubmitMined)
	require.True(t, ok, "got %#v", ev)

	s = Reduce(s, ev)
	assert.Equal(t, 2, s.Count)
	assert.False(t, s.Pending)
	assert.True(t, s.Success, "success holds until the live event arrives")
	assert.Equal(t, mined.TxHash, s.LastTx)
	assert.Equal(t, []string{"Hi there"}, backend.sent)
	assert.Equal(t, []uint64{300000}, backend.gasLimits)

	s = Reduce(s, WaveReceived{Wave: Wave{Sender: alice, Timestamp: time.Now(), Message: "Hi there"}})
	assert.Equal(t, "Hi there", s.Waves[0].Message)
	assert.False(t, s.Success)
}

func TestSubmitMessageFailures(t *testing.T) {
	ctx := context.Background()
	start := Reduce(State{Account: alice, Draft: "Hi there", Waves: []Wave{{Message: "kept"}}, Count: 1}, SubmitStarted{})

	tests := []struct {
		name    string
		backend Backend
		wallet  wallet.Provider
		draft   string
		want    error
	}{
		{name: "rejected signature", backend: &fakeBackend{}, wallet: &fakeWallet{transactorErr: wallet.ErrUserRejected}, draft: "Hi there", want: wallet.ErrUserRejected},
		{name: "no provider", backend: &fakeBackend{}, wallet: nil, draft: "Hi there", want: wallet.ErrNoProvider},
		{name: "no backend", backend: nil, wallet: &fakeWallet{}, draft: "Hi there", want: ErrNoBackend},
		{name: "too short", backend: &fakeBackend{}, wallet: &fakeWallet{}, draft: "hi", want: ErrInvalidDraft},
		{name: "send fails", backend: &fakeBackend{waveErr: errors.New("out of gas")}, wallet: &fakeWallet{}, draft: "Hi there"},
		{name: "reverted", backend: &fakeBackend{mineErr: contract.ErrReverted}, wallet: &fakeWallet{}, draft: "Hi there", want: contract.ErrReverted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := New(tt.backend, tt.wallet).SubmitMessage(ctx, alice, tt.draft)
			failed, ok := ev.(SubmitFailed)
			require.True(t, ok, "got %#v", ev)
			if tt.want != nil {
				assert.ErrorIs(t, failed.Err, tt.want)
			}

			s := Reduce(start, ev)
			assert.False(t, s.Pending)
			assert.False(t, s.Success)
			assert.Equal(t, start.Waves, s.Waves)
			assert.Equal(t, 1, s.Count)
		})
	}
}

func TestSubmitMessageNotConnected(t *testing.T) {
	ev := New(&fakeBackend{}, &fakeWallet{}).SubmitMessage(context.Background(), common.Address{}, "Hi there")
	failed, ok := ev.(SubmitFailed)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, ErrNotConnected)
}

func TestWithGasLimit(t *testing.T) {
	backend := &fakeBackend{}
	ev := New(backend, &fakeWallet{}, WithGasLimit(500000)).SubmitMessage(context.Background(), alice, "Hi there")
	_, ok := ev.(SubmitMined)
	require.True(t, ok)
	assert.Equal(t, []uint64{500000}, backend.gasLimits)
}

func TestSubscribeDeliversAndTearsDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := &fakeBackend{}
	c := New(backend, nil)

	feed, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	require.NotNil(t, backend.sink)

	backend.sink <- &contract.NewWave{From: bob, Timestamp: big.NewInt(1640995200), Message: "live"}
	select {
	case w := <-feed.C():
		assert.Equal(t, bob, w.Sender)
		assert.Equal(t, "live", w.Message)
		assert.Equal(t, time.Unix(1640995200, 0), w.Timestamp)
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery")
	}

	feed.Unsubscribe()
	feed.Unsubscribe()

	backend.sink <- &contract.NewWave{From: bob, Timestamp: big.NewInt(1640995300), Message: "after teardown"}
	_, open := <-feed.C()
	assert.False(t, open, "no delivery after teardown")
	assert.NoError(t, feed.Err())
}

func TestCloseDoesNotWaitForShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	backend := &fakeBackend{release: make(chan struct{})}
	feed, err := New(backend, nil).Subscribe(context.Background())
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		feed.Close()
		feed.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on the subscription")
	}

	select {
	case <-feed.Done():
		t.Fatal("feed reported done before the subscription shut down")
	default:
	}

	close(backend.release)
	select {
	case <-feed.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("feed never finished")
	}
	_, open := <-feed.C()
	assert.False(t, open)
}

func TestSubscribeIDsAreUnique(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := New(&fakeBackend{}, nil)
	a, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	defer a.Unsubscribe()
	b, err := c.Subscribe(context.Background())
	require.NoError(t, err)
	defer b.Unsubscribe()

	assert.NotEqual(t, a.ID(), b.ID())
}

func TestSubscribeErrors(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, err := New(nil, nil).Subscribe(context.Background())
	assert.ErrorIs(t, err, ErrNoBackend)

	_, err = New(&fakeBackend{watchErr: errors.New("filters unsupported")}, nil).Subscribe(context.Background())
	assert.Error(t, err)

	fail := make(chan error, 1)
	feed, err := New(&fakeBackend{subFail: fail}, nil).Subscribe(context.Background())
	require.NoError(t, err)

	fail <- errors.New("connection reset")
	_, open := <-feed.C()
	assert.False(t, open)
	assert.EqualError(t, feed.Err(), "connection reset")
	feed.Unsubscribe()
}
