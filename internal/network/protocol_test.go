package network

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, OpChat, []byte("hello")))

	f, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, OpChat, f.Op)
	assert.Equal(t, []byte("hello"), f.Payload)
}

func TestReadFrameEmptyPayloadIsNotEmptyFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, OpReady, nil))

	f, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, OpReady, f.Op)
	assert.Empty(t, f.Payload)
}

func TestReadFrameRejectsOversizeLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, OpChat, make([]byte, 64)))

	// Corrupt the length prefix to claim a frame larger than maxFrameLen.
	b := buf.Bytes()
	b[0], b[1], b[2], b[3] = 0xFF, 0xFF, 0xFF, 0x7F

	_, err := ReadFrame(bytes.NewReader(b))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestLocalPosOffsetRoundTripThroughBufReaderWriter(t *testing.T) {
	w := &bufWriter{}
	w.localPos(LocalPos{X: -5, Y: 100, Z: 32000})
	w.localOffset(LocalOffset{X: 1, Y: -1, Z: 0})

	r := newBufReader(w.b)
	pos, err := r.localPos()
	require.NoError(t, err)
	assert.Equal(t, LocalPos{X: -5, Y: 100, Z: 32000}, pos)

	off, err := r.localOffset()
	require.NoError(t, err)
	assert.Equal(t, LocalOffset{X: 1, Y: -1, Z: 0}, off)
}

func TestBufReaderReportsShortPayload(t *testing.T) {
	r := newBufReader([]byte{1, 2})
	_, err := r.u32()
	assert.ErrorIs(t, err, ErrShortPayload)
}
