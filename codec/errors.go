package codec

import "errors"

// Error kinds returned by Encode, Parse, and Split. Encode-time failures
// abort the call; parse-time failures are dropped silently by the Scanner
// Pipeline (never bubbled up as a crash).
var (
	// ErrPayloadTooLarge is returned when encoded content cannot fit a
	// single advertisement and cannot be truncated within the 2x
	// tolerance this package allows before giving up.
	ErrPayloadTooLarge = errors.New("vuelink/codec: payload too large")

	// ErrEmptyContent is returned when a message has no content to encode.
	ErrEmptyContent = errors.New("vuelink/codec: content must not be empty")

	// ErrInvalidPartNumbering is returned when partNo/totalParts violate
	// 1 <= partNo <= totalParts <= 7, or when Split would need more than
	// 7 wire-representable parts.
	ErrInvalidPartNumbering = errors.New("vuelink/codec: invalid part numbering")

	// ErrNotSplittable is returned by Split for message kinds that don't
	// allow fragmenting at all (flightUpdate, system, emergency, ...).
	ErrNotSplittable = errors.New("vuelink/codec: message type is not splittable")

	// ErrMalformedAdvertisement is returned by Parse for anything outside
	// the [2, 23]-byte envelope an advertisement payload must fit.
	ErrMalformedAdvertisement = errors.New("vuelink/codec: malformed advertisement")
)
