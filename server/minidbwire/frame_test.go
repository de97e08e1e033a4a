package minidbwire

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannm99/minidb/internal/sql/executor"
)

func TestFrame_RoundTripOverPipe(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	want := ExecuteResponse{
		ID:      7,
		Session: "s-1",
		Result: &executor.Result{
			Kind:         executor.KindSelected,
			Detail:       "id  \n----\n1   ",
			Columns:      []string{"id"},
			Rows:         [][]string{{"1"}},
			AffectedRows: 1,
		},
	}

	errc := make(chan error, 1)
	go func() { errc <- WriteFrame(a, want) }()

	var got ExecuteResponse
	require.NoError(t, ReadFrame(b, &got))
	require.NoError(t, <-errc)
	assert.Equal(t, want, got)
}

func TestFrame_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, ExecuteRequest{ID: 1, SQL: "SELECT * FROM t"}))

	raw := buf.Bytes()
	n := binary.BigEndian.Uint32(raw[:4])
	assert.Equal(t, len(raw)-4, int(n))
	assert.JSONEq(t, `{"id":1,"sql":"SELECT * FROM t"}`, string(raw[4:]))
}

func TestFrame_Rejects(t *testing.T) {
	var v ExecuteRequest

	empty := []byte{0, 0, 0, 0}
	assert.ErrorIs(t, ReadFrame(bytes.NewReader(empty), &v), ErrEmptyFrame)

	var huge [4]byte
	binary.BigEndian.PutUint32(huge[:], MaxFrameSize+1)
	assert.ErrorIs(t, ReadFrame(bytes.NewReader(huge[:]), &v), ErrFrameTooLarge)

	bad := append([]byte{0, 0, 0, 3}, []byte("{x}")...)
	assert.ErrorContains(t, ReadFrame(bytes.NewReader(bad), &v), "bad json")

	short := append([]byte{0, 0, 0, 10}, []byte("{}")...)
	err := ReadFrame(bytes.NewReader(short), &v)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.ErrorContains(t, err, "truncated frame")

	assert.ErrorIs(t, ReadFrame(bytes.NewReader(nil), &v), io.EOF)
}

func TestFrame_WriteRejectsOversizedResult(t *testing.T) {
	big := make([]byte, MaxFrameSize)
	for i := range big {
		big[i] = 'a'
	}
	resp := ExecuteResponse{Result: &executor.Result{Kind: executor.KindSelected, Detail: string(big)}}

	var buf bytes.Buffer
	assert.ErrorIs(t, WriteFrame(&buf, resp), ErrFrameTooLarge)
	assert.Zero(t, buf.Len())
}
