// Package vuelinkcore wires the Codec, Reassembler, History Store,
// Forwarder, Scanner Pipeline, and Advertiser Sequencer into the single
// facade a host application embeds: advertise, cancelAdvertise,
// scanStart/scanStop, a subscription stream, setForwardingEnabled,
// history.list/clear, and importSharedSnapshot.
//
// Grounded on azaurus1-swarm/cmd/run.go's top-level wiring of its
// simulation components into one runnable object, and on the phone
// package constructors that take a Config and assemble every
// collaborator in one place.
package vuelinkcore

import (
	"context"
	"time"

	"github.com/user/vuelink/advertiser"
	"github.com/user/vuelink/ble"
	"github.com/user/vuelink/config"
	"github.com/user/vuelink/forward"
	"github.com/user/vuelink/history"
	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/reassembly"
	"github.com/user/vuelink/scanner"
	"github.com/user/vuelink/snapshot"
	"github.com/user/vuelink/vuelog"
)

const logPrefix = "vuelinkcore"

// Core is the assembled Vuelink node: one adapter, one history store, one
// reassembler, one forwarder, one scanner pipeline, one advertiser.
type Core struct {
	cfg config.Config

	history     *history.Store
	reassembler *reassembly.Reassembler
	forwarder   *forward.Forwarder
	advertiser  *advertiser.Advertiser
	pipeline    *scanner.Pipeline

	gcCancel context.CancelFunc
}

// New assembles a Core from cfg and adapter. Opens (or creates) the
// history file under cfg.DataDir.
func New(cfg config.Config, adapter ble.Adapter) (*Core, error) {
	hist, err := history.Open(config.HistoryPath(cfg.DataDir), cfg.HistoryCapacity, cfg.DedupWindow)
	if err != nil {
		return nil, err
	}
	return assemble(cfg, adapter, hist), nil
}

// NewEphemeral assembles a Core with an in-memory-only history store,
// for the demo CLI and other short-lived runs that shouldn't touch disk.
func NewEphemeral(cfg config.Config, adapter ble.Adapter) *Core {
	return assemble(cfg, adapter, history.New(cfg.HistoryCapacity, cfg.DedupWindow))
}

func assemble(cfg config.Config, adapter ble.Adapter, hist *history.Store) *Core {
	adv := advertiser.New(adapter, cfg)

	c := &Core{cfg: cfg, history: hist, advertiser: adv}

	c.forwarder = forward.New(cfg.ForwardingEnabled, cfg.ForwardDwell, c.advertiseForForwarder)
	c.reassembler = reassembly.New(cfg.FragmentTimeout, forward.Eligible)
	c.pipeline = scanner.New(adapter, cfg.ManufacturerID, c.reassembler, c.history, c.forwarder)

	return c
}

func (c *Core) advertiseForForwarder(ctx context.Context, m protocol.Message, dwell time.Duration) error {
	if !c.advertiser.Advertise(ctx, m, dwell, nil) {
		return errForwardFailed
	}
	return nil
}

// Run starts the Scanner Pipeline and the Reassembler's periodic GC
// sweep. It returns once both are running; call Stop (or cancel ctx) to
// halt them.
func (c *Core) Run(ctx context.Context) bool {
	if !c.pipeline.Start(ctx) {
		return false
	}
	gcCtx, cancel := context.WithCancel(ctx)
	c.gcCancel = cancel
	go c.gcLoop(gcCtx)
	return true
}

func (c *Core) gcLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.GCTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if dropped := c.reassembler.GC(now); dropped > 0 {
				vuelog.Debug(logPrefix, "GC dropped %d stale reassembly buckets", dropped)
			}
		}
	}
}

// Stop halts the pipeline, the GC loop, and any in-flight advertisement.
func (c *Core) Stop() {
	c.pipeline.Stop()
	if c.gcCancel != nil {
		c.gcCancel()
	}
	c.advertiser.Cancel()
}

// Advertise splits and encodes m via the Advertiser Sequencer and begins
// advertising it. onComplete, if non-nil, fires once the sequence finishes
// or is cancelled.
func (c *Core) Advertise(ctx context.Context, m protocol.Message, dwell time.Duration, onComplete func(err error)) bool {
	if dwell <= 0 {
		dwell = c.cfg.AdvertiseDwell
	}
	return c.advertiser.Advertise(ctx, m, dwell, onComplete)
}

// CancelAdvertise stops any in-flight outbound sequence.
func (c *Core) CancelAdvertise() bool {
	return c.advertiser.Cancel()
}

// Subscribe returns a channel of accepted, non-duplicate received
// messages.
func (c *Core) Subscribe() <-chan scanner.ReceivedMessage {
	return c.pipeline.Subscribe()
}

// SetForwardingEnabled toggles the global forwarding switch.
func (c *Core) SetForwardingEnabled(enabled bool) {
	c.forwarder.SetEnabled(enabled)
}

// ForwardingEnabled reports the current forwarding switch state.
func (c *Core) ForwardingEnabled() bool {
	return c.forwarder.Enabled()
}

// HistoryList returns the current history, oldest first.
func (c *Core) HistoryList() []protocol.StoredMessage {
	return c.history.List()
}

// HistoryClear wipes both in-memory and on-disk history.
func (c *Core) HistoryClear() error {
	return c.history.Clear()
}

// ExportSharedSnapshot packs the current history into the v1 shared-snapshot
// wire format.
func (c *Core) ExportSharedSnapshot() (string, error) {
	entries := c.history.List()
	msgs := make([]protocol.Message, len(entries))
	shouldForward := make([]bool, len(entries))
	for i, e := range entries {
		msgs[i] = e.Message
		shouldForward[i] = c.forwarder.Decide(e.Message)
	}
	return snapshot.Encode(msgs, shouldForward)
}

// ImportSharedSnapshot decodes a shared snapshot and feeds every message
// through the Dedup accept policy, exactly as if it had arrived over the
// air. It returns the count of messages newly accepted into
// history.
func (c *Core) ImportSharedSnapshot(blob string) (int, error) {
	decoded, err := snapshot.Decode(blob)
	if err != nil {
		return 0, err
	}
	accepted := 0
	now := time.Now()
	for _, d := range decoded {
		if c.history.Accept(d.Message, now) {
			accepted++
		}
	}
	return accepted, nil
}

type coreError string

func (e coreError) Error() string { return string(e) }

const errForwardFailed = coreError("vuelink/vuelinkcore: forwarder's adapter handoff failed")
