// Package terrainipc speaks the terrain-gen subprocess protocol (§6.3):
// four u32 request opcodes framed length-prefixed over the subprocess's
// stdin/stdout pipes, with GenPlane/GenChunk replying with a
// length-prefixed bundle. Grounded on the teacher's internal/network
// opcode/framing idiom (internal/network/protocol.go's message-type
// constants, internal/network/kcp_channel.go's length-prefixed frame
// read/write) generalized from JSON-over-socket messages to a tight
// binary request/reply pair suitable for a pipe to a child process.
package terrainipc

import (
	"encoding/binary"
	"io"

	"github.com/annel0/mmo-game/internal/werr"
	"github.com/golang/snappy"
)

type Opcode uint32

const (
	OpInitPlane Opcode = iota + 1
	OpForgetPlane
	OpGenPlane
	OpGenChunk
)

// InitPlaneFlags mirrors the flags word passed to InitPlane; the concrete
// bit layout is owned by whatever generator is plugged in (cmd/terraingen
// interprets bit 0 as "flat debug world" in its reference implementation).
type InitPlaneFlags uint32

// request is the wire shape of every opcode: a fixed opcode word followed
// by an opcode-specific payload the caller has already encoded.
type request struct {
	Op      Opcode
	Payload []byte
}

func writeFrame(w io.Writer, payload []byte) error {
	compressed := snappy.Encode(nil, payload)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(compressed)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return werr.New(werr.NotFound, "terrainipc.writeFrame", err)
	}
	if _, err := w.Write(compressed); err != nil {
		return werr.New(werr.NotFound, "terrainipc.writeFrame", err)
	}
	return nil
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	compressed := make([]byte, n)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, werr.New(werr.NotFound, "terrainipc.readFrame", err)
	}
	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, werr.New(werr.NotFound, "terrainipc.readFrame", err)
	}
	return payload, nil
}

func encodeRequest(req request) []byte {
	buf := make([]byte, 4+len(req.Payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(req.Op))
	copy(buf[4:], req.Payload)
	return buf
}

func decodeRequest(raw []byte) (request, error) {
	if len(raw) < 4 {
		return request{}, werr.New(werr.InvalidRef, "terrainipc.decodeRequest", nil)
	}
	return request{Op: Opcode(binary.LittleEndian.Uint32(raw[0:4])), Payload: raw[4:]}, nil
}

func encodeInitPlane(stablePlane uint64, flags InitPlaneFlags) []byte {
	buf := make([]byte, 12)
	binary.LittleEndian.PutUint64(buf[0:8], stablePlane)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(flags))
	return buf
}

func decodeInitPlane(p []byte) (stablePlane uint64, flags InitPlaneFlags, err error) {
	if len(p) != 12 {
		return 0, 0, werr.New(werr.InvalidRef, "terrainipc.decodeInitPlane", nil)
	}
	return binary.LittleEndian.Uint64(p[0:8]), InitPlaneFlags(binary.LittleEndian.Uint32(p[8:12])), nil
}

func encodeStablePlane(stablePlane uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, stablePlane)
	return buf
}

func decodeStablePlane(p []byte) (uint64, error) {
	if len(p) != 8 {
		return 0, werr.New(werr.InvalidRef, "terrainipc.decodeStablePlane", nil)
	}
	return binary.LittleEndian.Uint64(p), nil
}

func encodeGenChunk(stablePlane uint64, cx, cy int32) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint64(buf[0:8], stablePlane)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(cx))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(cy))
	return buf
}

func decodeGenChunk(p []byte) (stablePlane uint64, cx, cy int32, err error) {
	if len(p) != 16 {
		return 0, 0, 0, werr.New(werr.InvalidRef, "terrainipc.decodeGenChunk", nil)
	}
	stablePlane = binary.LittleEndian.Uint64(p[0:8])
	cx = int32(binary.LittleEndian.Uint32(p[8:12]))
	cy = int32(binary.LittleEndian.Uint32(p[12:16]))
	return stablePlane, cx, cy, nil
}
