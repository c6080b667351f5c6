// Package ble defines the platform BLE adapter boundary: the
// interface the core consumes to drive advertising/scanning, and the
// event shapes it receives. The concrete adapter calling into the OS
// Bluetooth stack is out of scope — simradio provides an
// in-memory stand-in that satisfies the same interface for tests and the
// demo CLI.
//
// Grounded on the kotlin/bluetooth_advertiser.go and
// android/scan_callback.go for the manufacturer-data/advertisement shape,
// generalized from their Android-specific types to a plain Go interface.
package ble

import "context"

// ManufacturerRecord is one manufacturer-specific data block inside an
// advertisement.
type ManufacturerRecord struct {
	ID    uint16
	Bytes []byte
}

// Advertisement is a single discovered BLE advertisement. RSSI
// is the adapter-reported signal strength; the open question on
// RSSI is resolved by carrying it through rather than a fixed placeholder.
type Advertisement struct {
	DeviceName       string
	ManufacturerData []ManufacturerRecord
	RSSI             int
}

// State mirrors the platform Bluetooth power/authorization state stream.
type State int

const (
	StateUnknown State = iota
	StatePoweredOn
	StatePoweredOff
	StateUnauthorized
	StateUnsupported
)

func (s State) String() string {
	switch s {
	case StatePoweredOn:
		return "poweredOn"
	case StatePoweredOff:
		return "poweredOff"
	case StateUnauthorized:
		return "unauthorized"
	case StateUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Adapter is the platform BLE stack boundary the core consumes.
// Implementations must be safe for concurrent use by the Advertiser and
// Scanner, though neither ever drives it with conflicting
// configurations simultaneously.
type Adapter interface {
	StartAdvertising(ctx context.Context, deviceName string, manufacturerID uint16, payload []byte, includeServiceUUID bool) bool
	StopAdvertising() bool
	IsAdvertising() bool

	StartScanning(ctx context.Context) bool
	StopScanning() bool
	IsScanning() bool

	// Advertisements returns the channel the adapter publishes discovered
	// advertisements on. Valid only while scanning.
	Advertisements() <-chan Advertisement
	// States returns the channel the adapter publishes power/authorization
	// state transitions on.
	States() <-chan State

	RequestPermissions(ctx context.Context) bool
}
