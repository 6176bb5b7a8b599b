package terrainipc

import (
	"bufio"
	"io"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/logging"
)

// Generator is what a terrain-gen subprocess implements to answer the
// four opcodes; cmd/terraingen's binary is the reference implementer.
type Generator interface {
	InitPlane(stablePlane uint64, flags InitPlaneFlags) error
	ForgetPlane(stablePlane uint64) error
	GenPlane(stablePlane uint64) (*bundle.Bundle, error)
	GenChunk(stablePlane uint64, cx, cy int32) (*bundle.Bundle, error)
}

// Serve runs the subprocess side of the protocol: read one request frame,
// dispatch it, write a reply frame only for GenPlane/GenChunk, repeat
// until r hits EOF (the parent closed its end of the pipe). A malformed
// request logs and ends the loop — the subprocess is expected to exit and
// be respawned, not try to resynchronize a corrupted stream.
func Serve(r io.Reader, w io.Writer, gen Generator) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)
	for {
		raw, err := readFrame(reader)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		req, err := decodeRequest(raw)
		if err != nil {
			logging.LogError("terrainipc.Serve: bad request frame: %v", err)
			return err
		}
		if err := dispatch(writer, gen, req); err != nil {
			logging.LogError("terrainipc.Serve: opcode %d failed: %v", req.Op, err)
			return err
		}
	}
}

func dispatch(w *bufio.Writer, gen Generator, req request) error {
	switch req.Op {
	case OpInitPlane:
		stablePlane, flags, err := decodeInitPlane(req.Payload)
		if err != nil {
			return err
		}
		return gen.InitPlane(stablePlane, flags)

	case OpForgetPlane:
		stablePlane, err := decodeStablePlane(req.Payload)
		if err != nil {
			return err
		}
		return gen.ForgetPlane(stablePlane)

	case OpGenPlane:
		stablePlane, err := decodeStablePlane(req.Payload)
		if err != nil {
			return err
		}
		b, err := gen.GenPlane(stablePlane)
		if err != nil {
			return err
		}
		return replyBundle(w, b)

	case OpGenChunk:
		stablePlane, cx, cy, err := decodeGenChunk(req.Payload)
		if err != nil {
			return err
		}
		b, err := gen.GenChunk(stablePlane, cx, cy)
		if err != nil {
			return err
		}
		return replyBundle(w, b)
	}
	return nil
}

func replyBundle(w *bufio.Writer, b *bundle.Bundle) error {
	data, err := bundle.Write(b)
	if err != nil {
		return err
	}
	if err := writeFrame(w, data); err != nil {
		return err
	}
	return w.Flush()
}
