// Package simradio is an in-memory simulated BLE medium: every node
// registered on a Medium that is advertising has its payload delivered to
// every other node that is currently scanning. It exists because the real
// platform BLE adapter is out of scope; simradio lets
// Scanner and the Advertiser Sequencer be exercised end-to-end in tests
// and the demo CLI without real hardware.
//
// Grounded on azaurus1-swarm/internal/radio/radio.go's Radio.Serve: a
// shared medium object that fans a message out from one registered peer
// to every other registered peer, generalized from its range-based
// broadcast to BLE's broadcast-to-everyone-in-earshot model (no simulated
// physical range; every scanning node hears every advertising node).
package simradio

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/user/vuelink/ble"
	"github.com/user/vuelink/vuelog"
)

const logPrefix = "simradio"

// Medium is the shared simulated "air". Nodes register on it and hear
// each other's advertisements while scanning.
type Medium struct {
	mu    sync.Mutex
	nodes map[string]*Node
}

// NewMedium creates an empty medium.
func NewMedium() *Medium {
	return &Medium{nodes: make(map[string]*Node)}
}

// Register creates a new node identified by name and attaches it to the
// medium. name becomes the node's advertised device name and, by
// convention, the "source" the Scanner Pipeline observes.
func (m *Medium) Register(name string) *Node {
	n := &Node{
		id:      uuid.New(),
		name:    name,
		medium:  m,
		adverts: make(chan ble.Advertisement, 32),
		states:  make(chan ble.State, 4),
	}
	m.mu.Lock()
	m.nodes[name] = n
	m.mu.Unlock()
	n.states <- ble.StatePoweredOn
	return n
}

// Unregister removes a node from the medium; it stops receiving deliveries.
func (m *Medium) Unregister(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.nodes, name)
}

// deliver fans payload out from source to every other currently-scanning node.
func (m *Medium) deliver(source string, adv ble.Advertisement) {
	m.mu.Lock()
	targets := make([]*Node, 0, len(m.nodes))
	for name, n := range m.nodes {
		if name == source {
			continue
		}
		targets = append(targets, n)
	}
	m.mu.Unlock()

	for _, n := range targets {
		n.mu.RLock()
		scanning := n.scanning
		n.mu.RUnlock()
		if !scanning {
			continue
		}
		select {
		case n.adverts <- adv:
		default:
			vuelog.Warn(logPrefix, "node %s advertisement channel full, dropping", n.name)
		}
	}
}

// Node is a single simulated device on the medium. It implements ble.Adapter.
// id is a stable identity independent of the (possibly reused, across
// tests) device name, useful for diagnostics that need to distinguish two
// nodes registered under the same name at different times.
type Node struct {
	id     uuid.UUID
	name   string
	medium *Medium

	mu          sync.RWMutex
	advertising bool
	scanning    bool
	payload     []byte
	mfgID       uint16
	rssi        int

	adverts chan ble.Advertisement
	states  chan ble.State
}

// ID returns the node's stable identity, distinct from its device name.
func (n *Node) ID() uuid.UUID { return n.id }

// SetRSSI configures the RSSI value this node reports on its outgoing
// advertisements, so tests can exercise RSSI passthrough.
func (n *Node) SetRSSI(rssi int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rssi = rssi
}

func (n *Node) StartAdvertising(ctx context.Context, deviceName string, manufacturerID uint16, payload []byte, includeServiceUUID bool) bool {
	n.mu.Lock()
	n.advertising = true
	n.payload = payload
	n.mfgID = manufacturerID
	rssi := n.rssi
	n.mu.Unlock()

	n.medium.deliver(n.name, ble.Advertisement{
		DeviceName:       deviceName,
		ManufacturerData: []ble.ManufacturerRecord{{ID: manufacturerID, Bytes: payload}},
		RSSI:             rssi,
	})
	return true
}

func (n *Node) StopAdvertising() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.advertising = false
	return true
}

func (n *Node) IsAdvertising() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.advertising
}

func (n *Node) StartScanning(ctx context.Context) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scanning = true
	return true
}

func (n *Node) StopScanning() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scanning = false
	return true
}

func (n *Node) IsScanning() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.scanning
}

func (n *Node) Advertisements() <-chan ble.Advertisement { return n.adverts }
func (n *Node) States() <-chan ble.State { return n.states }

func (n *Node) RequestPermissions(ctx context.Context) bool { return true }
