package bundle

import (
	"github.com/annel0/mmo-game/internal/werr"
	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
)

// magic tags the start of every encoded bundle so a truncated or wholly
// unrelated file is rejected immediately instead of partway through
// decoding (§4.6 "reject inconsistent lengths, bad tag bytes... and
// non-UTF-8 strings").
const magic uint32 = 0x42444c31 // "BDL1"

// Bundle is an in-memory collection of object subgraph slices plus the
// interned string tables import uses to remap foreign small-integer ids to
// local ones (§4.6).
type Bundle struct {
	Animations *StringTable
	Items      *StringTable
	Blocks     *StringTable
	Templates  *StringTable

	ExportID string // uuid, stamped by Export (§4.6 "export batch id")

	Clients     []ClientRecord
	Entities    []EntityRecord
	Inventories []InventoryRecord
	Planes      []PlaneRecord
	Chunks      []ChunkRecord
	Structures  []StructureRecord
}

func New() *Bundle {
	return &Bundle{
		Animations: NewStringTable(),
		Items:      NewStringTable(),
		Blocks:     NewStringTable(),
		Templates:  NewStringTable(),
	}
}

// Write encodes the bundle into the §4.6 wire format: a plain framing
// header (magic, format version, an xxhash64 checksum of the
// *uncompressed* body, and the uncompressed body length), then the
// zstd-compressed body (string tables + per-kind length-prefixed record
// sections, 4-byte aligned), so corruption introduced either in flight or
// by the compressor is caught on read.
func Write(b *Bundle) ([]byte, error) {
	body := newWriter()
	b.Animations.encode(body)
	b.Items.encode(body)
	b.Blocks.encode(body)
	b.Templates.encode(body)
	body.str(b.ExportID)
	body.align4()

	encodeClients(body, b.Clients)
	encodeEntities(body, b.Entities)
	encodeInventories(body, b.Inventories)
	encodePlanes(body, b.Planes)
	encodeChunks(body, b.Chunks)
	encodeStructures(body, b.Structures)

	raw := body.bytes()
	checksum := xxhash.Sum64(raw)

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, werr.Bundle("zstd encoder init", err)
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)

	out := newWriter()
	out.u32(magic)
	out.u32(1) // format version
	out.u64(checksum)
	out.u32(uint32(len(raw))) // uncompressed length, sanity-checked on read
	out.bytesField(compressed)
	return out.bytes(), nil
}

// Read decodes a bundle previously produced by Write, rejecting any
// inconsistency atomically — on error, the returned Bundle is always nil,
// so nothing partial can leak into a caller's import path (§7 "a codec
// error aborts the entire import atomically").
func Read(data []byte) (*Bundle, error) {
	r := newReader(data)
	gotMagic, err := r.u32()
	if err != nil {
		return nil, err
	}
	if gotMagic != magic {
		return nil, werr.Bundle("bad magic", errBadTag)
	}
	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	if version != 1 {
		return nil, werr.Bundle("unsupported bundle version", errBadTag)
	}
	wantChecksum, err := r.u64()
	if err != nil {
		return nil, err
	}
	wantLen, err := r.u32()
	if err != nil {
		return nil, err
	}
	compressed, err := r.bytesField()
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, werr.Bundle("zstd decoder init", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, werr.Bundle("zstd decode", err)
	}
	if uint32(len(raw)) != wantLen {
		return nil, werr.Bundle("decompressed length mismatch", errBadLength)
	}
	if xxhash.Sum64(raw) != wantChecksum {
		return nil, werr.Bundle("checksum mismatch", errBadLength)
	}

	body := newReader(raw)
	b := New()
	if b.Animations, err = decodeStringTable(body); err != nil {
		return nil, err
	}
	if b.Items, err = decodeStringTable(body); err != nil {
		return nil, err
	}
	if b.Blocks, err = decodeStringTable(body); err != nil {
		return nil, err
	}
	if b.Templates, err = decodeStringTable(body); err != nil {
		return nil, err
	}
	if b.ExportID, err = body.str(); err != nil {
		return nil, err
	}
	if err := body.align4(); err != nil {
		return nil, err
	}

	if b.Clients, err = decodeClients(body); err != nil {
		return nil, err
	}
	if b.Entities, err = decodeEntities(body); err != nil {
		return nil, err
	}
	if b.Inventories, err = decodeInventories(body); err != nil {
		return nil, err
	}
	if b.Planes, err = decodePlanes(body); err != nil {
		return nil, err
	}
	if b.Chunks, err = decodeChunks(body); err != nil {
		return nil, err
	}
	if b.Structures, err = decodeStructures(body); err != nil {
		return nil, err
	}
	return b, nil
}
