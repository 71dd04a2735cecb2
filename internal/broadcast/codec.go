package broadcast

import (
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/triage-queue-sync/models"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

// Frame tags. They are part of the on-disk format of the spool directory.
const (
	frameCBOR     byte = 1
	frameCBORZstd byte = 2
)

// compressThreshold is the encoded size above which frames are compressed.
// Single-patient messages stay below it; snapshots usually do not.
const compressThreshold = 4 << 10

var ErrMalformedFrame = errors.New("malformed broadcast frame")

// Envelope wraps a message on the wire. ID and Origin only serve
// de-duplication and self-filtering; they impose no order.
type Envelope struct {
	ID      string                  `cbor:"id"`
	Origin  string                  `cbor:"origin"`
	SentAt  time.Time               `cbor:"sent_at"`
	Message models.BroadcastMessage `cbor:"message"`
}

var (
	encMode     cbor.EncMode
	decMode     cbor.DecMode
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	if encMode, err = opts.EncMode(); err != nil {
		panic("broadcast: CBOR encoder initialization failed: " + err.Error())
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic("broadcast: CBOR decoder initialization failed: " + err.Error())
	}

	if zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); err != nil {
		panic("broadcast: zstd encoder initialization failed: " + err.Error())
	}
	if zstdDecoder, err = zstd.NewReader(nil); err != nil {
		panic("broadcast: zstd decoder initialization failed: " + err.Error())
	}
}

// EncodeFrame serialises env as a tagged frame.
func EncodeFrame(env Envelope) ([]byte, error) {
	payload, err := encMode.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode broadcast envelope: %w", err)
	}

	if len(payload) > compressThreshold {
		compressed := zstdEncoder.EncodeAll(payload, make([]byte, 1, len(payload)/2))
		if len(compressed)-1 < len(payload) {
			compressed[0] = frameCBORZstd
			return compressed, nil
		}
	}

	frame := make([]byte, 0, len(payload)+1)
	frame = append(frame, frameCBOR)
	return append(frame, payload...), nil
}

// DecodeFrame parses a frame produced by EncodeFrame.
func DecodeFrame(frame []byte) (Envelope, error) {
	if len(frame) < 2 {
		return Envelope{}, fmt.Errorf("%w: %d bytes", ErrMalformedFrame, len(frame))
	}

	payload := frame[1:]
	switch frame[0] {
	case frameCBOR:
	case frameCBORZstd:
		var err error
		if payload, err = zstdDecoder.DecodeAll(payload, nil); err != nil {
			return Envelope{}, fmt.Errorf("%w: zstd: %w", ErrMalformedFrame, err)
		}
	default:
		return Envelope{}, fmt.Errorf("%w: unknown tag %d", ErrMalformedFrame, frame[0])
	}

	var env Envelope
	if err := decMode.Unmarshal(payload, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return env, nil
}
