package minidbwire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
)

// A frame is a 4-byte big-endian body length followed by one JSON encoded
// ExecuteRequest or ExecuteResponse.
const (
	headerLen = 4

	// MaxFrameSize bounds a single request or response body. A SELECT over
	// a large table is the only thing expected to get near it.
	MaxFrameSize = 8 << 20 // 8 MiB
)

var (
	ErrEmptyFrame    = errors.New("minidbwire: empty frame")
	ErrFrameTooLarge = errors.New("minidbwire: frame too large")
)

// ReadFrame reads one frame from r and decodes its body into v. A clean
// close between frames returns io.EOF unwrapped.
func ReadFrame(r io.Reader, v any) error {
	body, err := readBody(r)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("minidbwire: bad json: %w", err)
	}
	return nil
}

// WriteFrame encodes v and writes it as one frame.
func WriteFrame(w io.Writer, v any) error {
	frame, err := encodeFrame(v)
	if err != nil {
		return err
	}
	// one Write per frame so concurrent writers never interleave
	_, err = w.Write(frame)
	return err
}

func encodeFrame(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("minidbwire: marshal: %w", err)
	}
	if err := checkBodyLen(len(body)); err != nil {
		return nil, err
	}

	frame := make([]byte, 0, headerLen+len(body))
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(body)))
	return append(frame, body...), nil
}

func readBody(r io.Reader) ([]byte, error) {
	var hdr [headerLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	n := int(binary.BigEndian.Uint32(hdr[:]))
	if err := checkBodyLen(n); err != nil {
		return nil, err
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("minidbwire: truncated frame: %w", err)
	}
	return body, nil
}

// checkBodyLen applies the same limits on both sides of the connection.
func checkBodyLen(n int) error {
	switch {
	case n == 0:
		return ErrEmptyFrame
	case n > MaxFrameSize:
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, MaxFrameSize)
	}
	return nil
}
