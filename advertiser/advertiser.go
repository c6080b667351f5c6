// Package advertiser implements the Advertiser Sequencer:
// split a logical message into chunks, advertise each for a bounded
// dwell, space chunks with a small gap, and support cancellation that
// stops the current chunk at once and drops the remaining ones.
//
// Grounded on the start/auto-stop/settle timer discipline for
// BLE advertising (kotlin/bluetooth_advertiser.go) and its named timing
// constants (wire/constants.go), reimplemented here with
// context.Context cancellation and time.Timer rather than platform
// callback handles, in the idiom of azaurus1-swarm's cmd/run.go
// goroutine-plus-cancel-context control loops.
package advertiser

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/vuelink/ble"
	"github.com/user/vuelink/codec"
	"github.com/user/vuelink/config"
	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/vuelog"
)

const logPrefix = "advertiser"

// State is a position in the Idle → Advertising(i) → Gap → … → Idle state
// machine an Advertiser walks while running a sequence.
type State int

const (
	StateIdle State = iota
	StateAdvertising
	StateGap
)

func (s State) String() string {
	switch s {
	case StateAdvertising:
		return "advertising"
	case StateGap:
		return "gap"
	default:
		return "idle"
	}
}

// Advertiser owns the sequencer's transient state exclusively:
// the current State, the in-flight sequence's cancel func, and that
// sequence's token. The dwell and gap timers live inside run.
type Advertiser struct {
	adapter        ble.Adapter
	deviceName     string
	manufacturerID uint16
	gap            time.Duration

	mu         sync.Mutex
	state      State
	cancel     context.CancelFunc
	sequenceID uuid.UUID
}

// New creates an Advertiser driving adapter, using cfg for the device
// name, manufacturer ID, and inter-chunk gap.
func New(adapter ble.Adapter, cfg config.Config) *Advertiser {
	return &Advertiser{
		adapter:        adapter,
		deviceName:     cfg.DeviceName,
		manufacturerID: cfg.ManufacturerID,
		gap:            cfg.InterChunkGap,
	}
}

// State reports the sequencer's current position.
func (a *Advertiser) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Cancel idempotently stops any in-flight sequence at the current chunk
// boundary or sooner, immediately stopping the adapter
// and dropping remaining chunks.
func (a *Advertiser) Cancel() bool {
	a.mu.Lock()
	cancel := a.cancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	a.adapter.StopAdvertising()
	return true
}

// Advertise splits m via the Codec and advertises each chunk in turn for
// dwell. Starting a new message while one is in flight
// cancels the prior sequence first. onComplete, if non-nil, is invoked
// once after the last chunk stops, or with a non-nil error if the
// sequence was cancelled or the adapter failed. Advertise returns false
// immediately if the message could not be split/encoded at all.
func (a *Advertiser) Advertise(ctx context.Context, m protocol.Message, dwell time.Duration, onComplete func(err error)) bool {
	parts, err := codec.EncodeAll(m)
	if err != nil {
		vuelog.Warn(logPrefix, "refusing to advertise: %v", err)
		return false
	}

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	token := uuid.New()
	a.sequenceID = token
	a.mu.Unlock()

	go a.run(runCtx, token, parts, dwell, onComplete)
	return true
}

// run drives one sequence to completion or cancellation. token identifies
// this call among any later Advertise calls that supersede it; a
// superseded sequence's goroutine may still be unwinding its dwell/gap
// timers when it finishes, and must not clobber the newer sequence's
// state or clear its cancel func out from under it.
func (a *Advertiser) run(ctx context.Context, token uuid.UUID, parts [][]byte, dwell time.Duration, onComplete func(err error)) {
	var fail error

	for i, payload := range parts {
		a.setState(StateAdvertising)
		if !a.adapter.StartAdvertising(ctx, a.deviceName, a.manufacturerID, payload, false) {
			vuelog.Warn(logPrefix, "adapter failed to start advertising chunk %d/%d", i+1, len(parts))
			fail = errAdapterFailed
			break
		}

		if err := a.wait(ctx, dwell); err != nil {
			a.adapter.StopAdvertising()
			fail = err
			break
		}
		a.adapter.StopAdvertising()

		if i < len(parts)-1 {
			a.setState(StateGap)
			if err := a.wait(ctx, a.gap); err != nil {
				fail = err
				break
			}
		}
	}

	a.mu.Lock()
	if a.sequenceID == token {
		a.state = StateIdle
		a.cancel = nil
	}
	a.mu.Unlock()

	if onComplete != nil {
		onComplete(fail)
	}
}

func (a *Advertiser) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Advertiser) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

type sequencerError string

func (e sequencerError) Error() string { return string(e) }

const errAdapterFailed = sequencerError("vuelink/advertiser: adapter failed")
