// Package forward implements the accept→rebroadcast policy.
// Grounded on the android/gossip.go and iphone/gossip.go
// sendGossipToNeighbors — select, rebuild the outbound payload, hand it to
// the transport, log the outcome — generalized from gossip-to-neighbors to
// broadcast-rebroadcast.
package forward

import (
	"context"
	"sync"
	"time"

	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/vuelog"
)

const logPrefix = "forward"

// Eligible is the pure part of the policy: a message's repeat flag
// or priority alone, independent of the global forwarding switch. This is
// exactly what the Reassembler's ForwardPredicate needs, since
// it must be computed without reference to mutable Forwarder state.
func Eligible(m protocol.Message) bool {
	return m.GetRepeat() || m.GetPriority().IsForwardEligible()
}

// AdvertiseFunc hands a rebroadcast message to the Advertiser Sequencer
// with the given dwell. Implemented by vuelinkcore wiring advertiser.Advertise.
type AdvertiseFunc func(ctx context.Context, m protocol.Message, dwell time.Duration) error

// Forwarder decides whether an accepted message is rebroadcast and drives
// re-advertisement. It is the exclusive owner of the global
// forwarding switch; no other component mutates it.
type Forwarder struct {
	mu        sync.RWMutex
	enabled   bool
	dwell     time.Duration
	advertise AdvertiseFunc
}

// New creates a Forwarder. dwell is the short rebroadcast dwell; advertise is called to actually emit the rebroadcast.
func New(enabled bool, dwell time.Duration, advertise AdvertiseFunc) *Forwarder {
	return &Forwarder{enabled: enabled, dwell: dwell, advertise: advertise}
}

// SetEnabled toggles the global forwarding switch (exposed to the host as
// setForwardingEnabled).
func (f *Forwarder) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

// Enabled reports the current state of the global forwarding switch.
func (f *Forwarder) Enabled() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.enabled
}

// Decide reports whether an already-accepted message should be forwarded:
// forwarding must be enabled AND the message must be repeat-flagged or
// urgent/emergency priority.
func (f *Forwarder) Decide(m protocol.Message) bool {
	return f.Enabled() && Eligible(m)
}

// Forward re-encodes the full logical message with repeat forced true and
// hands it to the Advertiser Sequencer. Forcing repeat=true ensures
// downstream peers apply the same accept policy and forward at most once
// more themselves. Forward does not re-check Decide — the
// caller (the Scanner Pipeline, after Dedup acceptance) is expected to
// have already consulted it.
func (f *Forwarder) Forward(ctx context.Context, m protocol.Message) error {
	rebroadcast := protocol.WithRepeat(m, true)
	vuelog.Info(logPrefix, "forwarding %s (priority=%s)", rebroadcast.Kind(), rebroadcast.GetPriority())
	return f.advertise(ctx, rebroadcast, f.dwell)
}
