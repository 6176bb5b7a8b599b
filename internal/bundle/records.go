package bundle

// LocalRef is a bundle-local foreign transient id: 0 means "no reference",
// and every other value indexes 1-based into that kind's record slice in
// this same bundle (§4.6 "self-contained, relocatable"). Import remaps
// every LocalRef to a freshly allocated worldstore.TransientID in a single
// pass; a record's own position in its slice (1-based) is also its LocalRef
// for records that other records point back into.
type LocalRef uint32

const NoRef LocalRef = 0

// AttachRecord mirrors worldstore.Attachment with a LocalRef instead of a
// live TransientID.
type AttachRecord struct {
	Kind uint8
	Ref  LocalRef
}

type ClientRecord struct {
	StableID         uint64
	DisplayName      string
	Pawn             LocalRef
	ChildEntities    []LocalRef
	ChildInventories []LocalRef
	Extra            []byte
}

type EntityRecord struct {
	StableID    uint64
	StablePlane uint64
	Attach      AttachRecord

	StartPos  [3]float64
	Velocity  [3]float64
	StartTime int64
	HasEnd    bool
	EndTime   int64

	FacingX, FacingY float64
	AnimName         int // index into Animations table
	Appearance       uint32
	TargetVelocity   [3]float64
	Size             [3]float64

	ChildInventories []LocalRef
	Extra            []byte
}

type SlotRecord struct {
	Kind     uint8
	Count    uint8
	ItemName int // index into Items table, -1 for no item
	Param    int32
}

type InventoryRecord struct {
	StableID uint64
	Attach   AttachRecord
	Slots    []SlotRecord
	Extra    []byte
}

type PlaneRecord struct {
	StableID uint64
	Name     string
	// SavedChunks is exported as parallel arrays rather than a map so wire
	// order is deterministic and trivially length-checked.
	SavedChunkPos   [][2]int32
	SavedChunkStable []uint64
}

type ChunkRecord struct {
	StableID    uint64
	StablePlane uint64
	Pos         [2]int32
	Flags       uint8
	// BlockNames is 4096 entries, each an index into the Blocks table.
	BlockNames      []int
	ChildStructures []LocalRef
	ChildEntities   []LocalRef
	Extra           []byte
}

type StructureRecord struct {
	StableID     uint64
	TemplateName int // index into Templates table
	Pos          [3]int32
	StablePlane  uint64
	Attach       AttachRecord

	ChildInventories []LocalRef
	Extra            []byte
}
