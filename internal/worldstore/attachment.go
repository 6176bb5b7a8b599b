package worldstore

import "github.com/annel0/mmo-game/internal/util"

// AttachKind names what an object is attached to (§3.2's "Attachment ∈ {...}" sets).
type AttachKind uint8

const (
	AttachNone      AttachKind = iota // Clients are roots — no attachment
	AttachWorld                       // global root container (entities/inventories may attach directly to the world)
	AttachClient                      // Entity/Inventory attached to a Client
	AttachEntity                      // Inventory attached to an Entity
	AttachChunk                       // Entity/Structure attached to a TerrainChunk
	AttachPlane                       // Structure attached to a Plane
	AttachStructure                   // Inventory attached to a Structure
)

// Attachment is a typed parent pointer: which kind of object, and its
// transient id. Zero value is AttachNone (valid only for Clients).
type Attachment struct {
	Kind AttachKind
	ID   util.TransientID
}

func (a Attachment) storeKind() Kind {
	switch a.Kind {
	case AttachClient:
		return KindClient
	case AttachEntity:
		return KindEntity
	case AttachChunk:
		return KindChunk
	case AttachPlane:
		return KindPlane
	case AttachStructure:
		return KindStructure
	default:
		return -1
	}
}
