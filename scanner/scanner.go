// Package scanner implements the Scanner Pipeline: filter
// raw advertisements by manufacturer ID, parse with the Codec, feed the
// Reassembler, then Dedup, then subscribers, then the Forwarder.
//
// Grounded on the manufacturer-data filtering shape of
// android/scan_callback.go (iterate manufacturer-specific records,
// compare against the expected ID before touching the payload at all),
// and on azaurus1-swarm/cmd/run.go's event-loop-over-a-channel structure
// for driving the pipeline from an adapter's advertisement stream.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/vuelink/ble"
	"github.com/user/vuelink/codec"
	"github.com/user/vuelink/forward"
	"github.com/user/vuelink/history"
	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/reassembly"
	"github.com/user/vuelink/vuelog"
)

const logPrefix = "scanner"

// ReceivedMessage is the structured event emitted to subscribers.
// SessionID is a correlation ID minted once per emitted event so a host UI
// can match a ReceivedMessage to subsequent diagnostics or log lines about
// the same arrival without re-deriving identity from message content.
type ReceivedMessage struct {
	SessionID   string
	Source      string
	ReceivedAt  time.Time
	Message     protocol.Message
	WillForward bool
	RSSI        int
}

// Pipeline drives the Scanner Pipeline over an ble.Adapter's
// advertisement stream. It owns no shared state other than
// its own subscriber list; Reassembler and History are owned elsewhere
// and injected, per the single-writer rule.
type Pipeline struct {
	adapter        ble.Adapter
	manufacturerID uint16
	reassembler    *reassembly.Reassembler
	history        *history.Store
	forwarder      *forward.Forwarder

	mu          sync.Mutex
	subscribers []chan ReceivedMessage
	received    int

	cancel context.CancelFunc
}

// New creates a Pipeline. manufacturerID filters which manufacturer
// records are considered Vuelink traffic.
func New(adapter ble.Adapter, manufacturerID uint16, reassembler *reassembly.Reassembler, hist *history.Store, fwd *forward.Forwarder) *Pipeline {
	return &Pipeline{
		adapter:        adapter,
		manufacturerID: manufacturerID,
		reassembler:    reassembler,
		history:        hist,
		forwarder:      fwd,
	}
}

// Subscribe registers a channel to receive every accepted, non-duplicate
// message. The returned channel is buffered; a slow subscriber
// drops events rather than blocking the pipeline.
func (p *Pipeline) Subscribe() <-chan ReceivedMessage {
	ch := make(chan ReceivedMessage, 32)
	p.mu.Lock()
	p.subscribers = append(p.subscribers, ch)
	p.mu.Unlock()
	return ch
}

// Received reports the total count of advertisements the Codec parsed
// successfully, independent of how many completed reassembly or passed
// Dedup — the step whose count is reported back to the host via
// diagnostics.
func (p *Pipeline) Received() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.received
}

// Start begins consuming the adapter's advertisement stream and starts
// scanning. Stop (or cancelling ctx) idempotently halts delivery.
func (p *Pipeline) Start(ctx context.Context) bool {
	if !p.adapter.StartScanning(ctx) {
		return false
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(runCtx)
	return true
}

// Stop idempotently halts discovery delivery.
func (p *Pipeline) Stop() bool {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return p.adapter.StopScanning()
}

func (p *Pipeline) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case adv, ok := <-p.adapter.Advertisements():
			if !ok {
				return
			}
			p.handle(ctx, adv)
		}
	}
}

// handle runs one advertisement through the full pipeline to completion
// before returning, so history is never observed torn.
func (p *Pipeline) handle(ctx context.Context, adv ble.Advertisement) {
	for _, rec := range adv.ManufacturerData {
		if rec.ID != p.manufacturerID {
			continue
		}

		msg, err := codec.Parse(rec.Bytes)
		if err != nil {
			vuelog.Debug(logPrefix, "dropping malformed advertisement from %s: %v", adv.DeviceName, err)
			continue
		}

		p.mu.Lock()
		p.received++
		p.mu.Unlock()

		now := time.Now()
		result, complete := p.reassembler.AddFragment(adv.DeviceName, msg, now)
		if !complete {
			continue
		}

		if !p.history.Accept(result.Message, now) {
			continue
		}

		// result.WillForward is the reassembler's eligibility decision, frozen
		// on the bucket's first fragment; combine it with the live forwarding
		// switch rather than recomputing eligibility here.
		willForward := result.WillForward && p.forwarder != nil && p.forwarder.Enabled()

		event := ReceivedMessage{
			SessionID:   uuid.NewString(),
			Source:      adv.DeviceName,
			ReceivedAt:  now,
			Message:     result.Message,
			WillForward: willForward,
			RSSI:        adv.RSSI,
		}
		p.emit(event)

		if willForward {
			if err := p.forwarder.Forward(ctx, result.Message); err != nil {
				vuelog.Warn(logPrefix, "forward failed: %v", err)
			}
		}
	}
}

func (p *Pipeline) emit(event ReceivedMessage) {
	p.mu.Lock()
	subs := make([]chan ReceivedMessage, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			vuelog.Warn(logPrefix, "subscriber channel full, dropping event")
		}
	}
}
