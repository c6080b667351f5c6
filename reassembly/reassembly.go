// Package reassembly buffers fragments into per-message buckets keyed by
// (source, type, time-bucket), combines them once all parts have arrived,
// and garbage-collects stragglers.
//
// Grounded on arnnvv-bluetalk/framing.go's Reassembler (a map of fragment
// index to payload, completion checked by count) generalized to a
// coarser (source, type, 5s-bucket) key, and on
// avaneesh92-dnp3-go/reassembly.go's explicit Reset/timeout shape for the
// GC sweep.
package reassembly

import (
	"sync"
	"time"

	"github.com/user/vuelink/protocol"
	"github.com/user/vuelink/vuelog"
)

const logPrefix = "reassembly"

// bucketWindow is the coarse time bucket that clusters chunks
// of one logical message emitted within a single dwell cycle.
const bucketWindow = 5 * time.Second

// Key identifies a reassembly bucket: the (source, type, time
// bucket) tuple. Two independent senders sharing a name and emitting the
// same type within the same 5s window will collide; this is the baseline
// contract, not a bug.
type Key struct {
	Source string
	Type   protocol.MessageType
	Bucket int64
}

// KeyFor derives the reassembly key for a fragment received at receivedAt.
func KeyFor(source string, t protocol.MessageType, receivedAt time.Time) Key {
	return Key{Source: source, Type: t, Bucket: receivedAt.UnixMilli() / bucketWindow.Milliseconds()}
}

// ForwardPredicate decides, from a single fragment's priority/repeat flag
// alone (identical across every fragment of one message), whether the
// eventual whole message should be forwarded. It does not consult Dedup —
// that happens after reassembly completes, in the Scanner Pipeline.
type ForwardPredicate func(protocol.Message) bool

type bucket struct {
	totalParts  int
	fragments   map[int]protocol.Message
	firstSeen   time.Time
	willForward bool
}

// Reassembler owns reassembly buckets exclusively; no other component
// mutates this state.
type Reassembler struct {
	mu      sync.Mutex
	buckets map[Key]*bucket
	timeout time.Duration
	predict ForwardPredicate
}

// New creates a Reassembler. timeout is the fragment GC timeout; predict
// computes the forward decision from the first fragment seen for a
// bucket.
func New(timeout time.Duration, predict ForwardPredicate) *Reassembler {
	return &Reassembler{
		buckets: make(map[Key]*bucket),
		timeout: timeout,
		predict: predict,
	}
}

// Result is returned by AddFragment when a bucket completes. Reassembled
// is true only when Message was combined from more than one fragment;
// a whole (single-part) message arriving directly reports false.
type Result struct {
	Message     protocol.Message
	WillForward bool
	Reassembled bool
}

// AddFragment deposits a fragment into its bucket and returns (result,
// true) once every part 1..totalParts has arrived. source is the
// best-effort sender identifier from the advertisement.
func (r *Reassembler) AddFragment(source string, msg protocol.Message, receivedAt time.Time) (Result, bool) {
	frag, ok := msg.(protocol.Fragment)
	if !ok {
		// Not a fragmentable type; treat as already-complete single part.
		return Result{Message: msg, WillForward: r.predict(msg)}, true
	}
	partNo, totalParts := frag.PartInfo()
	if partNo == 0 {
		// Whole message, not a fragment in flight — nothing to reassemble.
		return Result{Message: msg, WillForward: r.predict(msg)}, true
	}

	key := KeyFor(source, msg.Kind(), receivedAt)

	r.mu.Lock()
	defer r.mu.Unlock()

	b, exists := r.buckets[key]
	if !exists {
		b = &bucket{
			totalParts:  totalParts,
			fragments:   make(map[int]protocol.Message),
			firstSeen:   receivedAt,
			willForward: r.predict(msg),
		}
		r.buckets[key] = b
		vuelog.Debug(logPrefix, "opened bucket %v totalParts=%d", key, totalParts)
	}

	b.fragments[partNo] = msg

	if len(b.fragments) < b.totalParts {
		return Result{}, false
	}
	for i := 1; i <= b.totalParts; i++ {
		if _, ok := b.fragments[i]; !ok {
			return Result{}, false
		}
	}

	combined := combine(b)
	delete(r.buckets, key)
	vuelog.Debug(logPrefix, "completed bucket %v", key)
	return Result{Message: combined, WillForward: b.willForward, Reassembled: true}, true
}

// GC drops buckets whose oldest fragment has been waiting longer than the
// fragment timeout. Call roughly every 30s.
func (r *Reassembler) GC(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	dropped := 0
	for key, b := range r.buckets {
		if now.Sub(b.firstSeen) > r.timeout {
			delete(r.buckets, key)
			dropped++
			vuelog.Warn(logPrefix, "dropping stale bucket %v (%d/%d parts received)", key, len(b.fragments), b.totalParts)
		}
	}
	return dropped
}

// Len reports the number of in-flight buckets, for tests and diagnostics.
func (r *Reassembler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

func combine(b *bucket) protocol.Message {
	first := b.fragments[1]
	switch first.(type) {
	case protocol.GeneralText:
		var text string
		for i := 1; i <= b.totalParts; i++ {
			text += b.fragments[i].(protocol.GeneralText).Text
		}
		f := first.(protocol.GeneralText)
		return protocol.GeneralText{Text: text, Repeat: f.Repeat, Prio: f.Prio}

	case protocol.FlightUpdateGeneral:
		var text string
		for i := 1; i <= b.totalParts; i++ {
			text += b.fragments[i].(protocol.FlightUpdateGeneral).Text
		}
		f := first.(protocol.FlightUpdateGeneral)
		return protocol.FlightUpdateGeneral{FlightID: f.FlightID, Text: text, Repeat: f.Repeat, Prio: f.Prio}

	case protocol.GeneralBasic:
		var content []byte
		for i := 1; i <= b.totalParts; i++ {
			content = append(content, b.fragments[i].(protocol.GeneralBasic).Content...)
		}
		f := first.(protocol.GeneralBasic)
		return protocol.GeneralBasic{Content: content, Repeat: f.Repeat, Prio: f.Prio}

	default:
		return first
	}
}
