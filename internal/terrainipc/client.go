package terrainipc

import (
	"bufio"
	"context"
	"os/exec"
	"sync"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/werr"
	"golang.org/x/sync/errgroup"
)

// Client owns one terrain-gen subprocess and issues the four §6.3
// opcodes against it. InitPlane and ForgetPlane are one-way; GenPlane and
// GenChunk are request/reply. Calls are serialized behind reqMu since the
// protocol is a single request-in-flight pipe pair, matching the
// subprocess's own single-threaded read loop (internal/terrainipc.Serve).
type Client struct {
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Reader

	reqMu sync.Mutex

	group  *errgroup.Group
	cancel context.CancelFunc
}

// Spawn starts the generator binary at path, wired to its own copy of
// storagePath (§5: "reads by the terrain-gen subprocess use a separate OS
// handle to its own copy of the path").
func Spawn(ctx context.Context, path string, storagePath string) (*Client, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, path, "-storage", storagePath)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return nil, werr.New(werr.NotFound, "terrainipc.Spawn", err)
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, werr.New(werr.NotFound, "terrainipc.Spawn", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, werr.New(werr.NotFound, "terrainipc.Spawn", err)
	}

	group, gctx := errgroup.WithContext(ctx)
	c := &Client{
		cmd:    cmd,
		stdin:  bufio.NewWriter(stdinPipe),
		stdout: bufio.NewReader(stdoutPipe),
		group:  group,
		cancel: cancel,
	}
	group.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return c, nil
}

// Close cancels the subprocess and waits for it to exit.
func (c *Client) Close() error {
	c.cancel()
	_ = c.group.Wait()
	return c.cmd.Wait()
}

func (c *Client) sendOneWay(op Opcode, payload []byte) error {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	if err := writeFrame(c.stdin, encodeRequest(request{Op: op, Payload: payload})); err != nil {
		return err
	}
	return c.stdin.Flush()
}

func (c *Client) roundTrip(op Opcode, payload []byte) (*bundle.Bundle, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()
	if err := writeFrame(c.stdin, encodeRequest(request{Op: op, Payload: payload})); err != nil {
		return nil, err
	}
	if err := c.stdin.Flush(); err != nil {
		return nil, werr.New(werr.NotFound, "terrainipc.roundTrip", err)
	}
	reply, err := readFrame(c.stdout)
	if err != nil {
		return nil, werr.New(werr.NotFound, "terrainipc.roundTrip", err)
	}
	return bundle.Read(reply)
}

// InitPlane tells the subprocess to prepare to generate for stablePlane.
func (c *Client) InitPlane(stablePlane uint64, flags InitPlaneFlags) error {
	err := c.sendOneWay(OpInitPlane, encodeInitPlane(stablePlane, flags))
	if err != nil {
		logging.LogError("terrainipc: InitPlane(%d) failed: %v", stablePlane, err)
	}
	return err
}

// ForgetPlane releases whatever InitPlane allocated for stablePlane.
func (c *Client) ForgetPlane(stablePlane uint64) error {
	err := c.sendOneWay(OpForgetPlane, encodeStablePlane(stablePlane))
	if err != nil {
		logging.LogError("terrainipc: ForgetPlane(%d) failed: %v", stablePlane, err)
	}
	return err
}

// GenPlane asks the subprocess for the plane record bundle (no chunks).
func (c *Client) GenPlane(stablePlane uint64) (*bundle.Bundle, error) {
	return c.roundTrip(OpGenPlane, encodeStablePlane(stablePlane))
}

// GenChunk asks the subprocess to generate a single chunk.
func (c *Client) GenChunk(stablePlane uint64, cx, cy int32) (*bundle.Bundle, error) {
	return c.roundTrip(OpGenChunk, encodeGenChunk(stablePlane, cx, cy))
}
