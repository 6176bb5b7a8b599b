// Package storage implements the save directory layout: under
// <save-root>/save/ sit four layer directories, base, commit, tmp and
// delta, each shaped the same way (world.dat, clients/<name>.client,
// planes/<stable-id:hex>.plane, terrain_chunks/<stable-id:hex>.terrain_chunk).
// Every file is a bundle.Bundle (§4.6). A read checks base, then commit,
// then tmp, then delta, returning the first hit; a write always lands in
// delta, so a save never touches a layer a concurrent generator-subprocess
// reader might be walking with its own OS handle to the same tree (§6).
//
// Grounded on the teacher's internal/storage/world_storage.go, which owns
// a single on-disk root and serializes deltas before persisting them; this
// package keeps that "serialize, then place under a path you own" shape
// but trades BadgerDB for the spec's plain directory-of-files layout,
// since the layering the spec wants is expressed as directories a second
// process can open independently, not as key prefixes inside one store
// only the owning process can see.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/util"
	"github.com/annel0/mmo-game/internal/werr"
)

type layer string

const (
	layerBase   layer = "base"
	layerCommit layer = "commit"
	layerTmp    layer = "tmp"
	layerDelta  layer = "delta"
)

var readOrder = [...]layer{layerBase, layerCommit, layerTmp, layerDelta}

// Store is the save directory rooted at <save-root>/save.
type Store struct {
	root string
}

func Open(saveRoot string) (*Store, error) {
	root := filepath.Join(saveRoot, "save")
	for _, l := range readOrder {
		if err := os.MkdirAll(filepath.Join(root, string(l), "clients"), 0o755); err != nil {
			return nil, werr.New(werr.NotFound, "storage.Open", err)
		}
		if err := os.MkdirAll(filepath.Join(root, string(l), "planes"), 0o755); err != nil {
			return nil, werr.New(werr.NotFound, "storage.Open", err)
		}
		if err := os.MkdirAll(filepath.Join(root, string(l), "terrain_chunks"), 0o755); err != nil {
			return nil, werr.New(werr.NotFound, "storage.Open", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(root, "summary"), 0o755); err != nil {
		return nil, werr.New(werr.NotFound, "storage.Open", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) worldPath(l layer) string {
	return filepath.Join(s.root, string(l), "world.dat")
}

func (s *Store) clientPath(l layer, name string) string {
	return filepath.Join(s.root, string(l), "clients", name+".client")
}

func (s *Store) planePath(l layer, id util.StableID) string {
	return filepath.Join(s.root, string(l), "planes", fmt.Sprintf("%016x.plane", uint64(id)))
}

func (s *Store) chunkPath(l layer, id util.StableID) string {
	return filepath.Join(s.root, string(l), "terrain_chunks", fmt.Sprintf("%016x.terrain_chunk", uint64(id)))
}

func readFirstHit(paths [4]string) ([]byte, error) {
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, werr.New(werr.NotFound, "storage.read", err)
		}
	}
	return nil, werr.New(werr.NotFound, "storage.read", nil)
}

func writeDelta(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return werr.New(werr.NotFound, "storage.write", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return werr.New(werr.NotFound, "storage.write", err)
	}
	return nil
}

// LoadWorld reads the top-level world.dat bundle, first hit wins across
// base/commit/tmp/delta.
func (s *Store) LoadWorld() (*bundle.Bundle, error) {
	data, err := readFirstHit([4]string{
		s.worldPath(layerBase), s.worldPath(layerCommit), s.worldPath(layerTmp), s.worldPath(layerDelta),
	})
	if err != nil {
		return nil, err
	}
	return bundle.Read(data)
}

// SaveWorld writes world.dat into the delta layer.
func (s *Store) SaveWorld(b *bundle.Bundle) error {
	data, err := bundle.Write(b)
	if err != nil {
		return err
	}
	return writeDelta(s.worldPath(layerDelta), data)
}

// LoadClient reads a client session bundle keyed by its display name, the
// same key a reconnecting client presents at handshake.
func (s *Store) LoadClient(name string) (*bundle.Bundle, error) {
	data, err := readFirstHit([4]string{
		s.clientPath(layerBase, name), s.clientPath(layerCommit, name),
		s.clientPath(layerTmp, name), s.clientPath(layerDelta, name),
	})
	if err != nil {
		return nil, err
	}
	return bundle.Read(data)
}

func (s *Store) SaveClient(name string, b *bundle.Bundle) error {
	data, err := bundle.Write(b)
	if err != nil {
		return err
	}
	return writeDelta(s.clientPath(layerDelta, name), data)
}

func (s *Store) LoadPlane(id util.StableID) (*bundle.Bundle, error) {
	data, err := readFirstHit([4]string{
		s.planePath(layerBase, id), s.planePath(layerCommit, id),
		s.planePath(layerTmp, id), s.planePath(layerDelta, id),
	})
	if err != nil {
		return nil, err
	}
	return bundle.Read(data)
}

func (s *Store) SavePlane(id util.StableID, b *bundle.Bundle) error {
	data, err := bundle.Write(b)
	if err != nil {
		return err
	}
	return writeDelta(s.planePath(layerDelta, id), data)
}

// LoadChunk reads a terrain chunk bundle, first hit across the four
// layers. A terrain-gen subprocess handed its own OS handle to this same
// tree can call this concurrently with the owning process's writes,
// since writes only ever land in delta and reads never need a lock to
// choose among immutable layer snapshots (§5, generator isolation).
func (s *Store) LoadChunk(id util.StableID) (*bundle.Bundle, error) {
	data, err := readFirstHit([4]string{
		s.chunkPath(layerBase, id), s.chunkPath(layerCommit, id),
		s.chunkPath(layerTmp, id), s.chunkPath(layerDelta, id),
	})
	if err != nil {
		return nil, err
	}
	return bundle.Read(data)
}

func (s *Store) SaveChunk(id util.StableID, b *bundle.Bundle) error {
	data, err := bundle.Write(b)
	if err != nil {
		return err
	}
	return writeDelta(s.chunkPath(layerDelta, id), data)
}

// SummaryDir returns the summary/ subtree a terrain-gen subprocess opens
// its own cache database against, outside the four save layers
// (internal/terrainipc owns what lives inside it).
func (s *Store) SummaryDir() string {
	return filepath.Join(s.root, "summary")
}
