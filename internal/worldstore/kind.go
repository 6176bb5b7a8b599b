// Package worldstore implements the world object store from spec §3/§4.1:
// a typed arena of Clients, Entities, Inventories, Planes, TerrainChunks and
// Structures, with stable/transient ids, attachment hierarchies and
// structural-invariant enforcement.
//
// The teacher's world.go owns a single map[vec.Vec2]*BigChunk and routes
// everything through per-region event channels running on their own
// goroutines — a concurrent design because BigChunks are independent
// actors. Spec §5 instead mandates a single-threaded cooperative core: one
// main loop owns all mutable world state, so this package drops the
// teacher's internal mutexes entirely (there is exactly one caller, the
// engine's dispatch loop) while keeping its other idiom — a manager struct
// holding maps keyed by id/coordinate, id generation via a dedicated
// allocator (generalizing GenerateEntityID/entityIDMu into per-kind
// SlabAllocators, internal/util/idalloc.go).
package worldstore

// Kind enumerates the six object kinds the store arenas hold (§3.2). Used
// to tag ObjectID.Kind for snapshot capture filters and to index Store's
// per-kind limbo/stable bookkeeping.
type Kind int

const (
	KindClient Kind = iota
	KindEntity
	KindInventory
	KindPlane
	KindChunk
	KindStructure
	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "Client"
	case KindEntity:
		return "Entity"
	case KindInventory:
		return "Inventory"
	case KindPlane:
		return "Plane"
	case KindChunk:
		return "TerrainChunk"
	case KindStructure:
		return "Structure"
	default:
		return "Unknown"
	}
}
