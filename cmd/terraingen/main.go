// Command terraingen is the subprocess side of §6.3's terrain-gen pipe
// protocol: it owns no long-lived world state of its own, answers
// InitPlane/ForgetPlane/GenPlane/GenChunk requests on stdin/stdout, and
// exits when its parent closes the pipe. Spawned and supervised by
// internal/chunklifecycle.Coordinator through internal/terrainipc.Client.
//
// Grounded on the teacher's internal/world/generator.go WorldGenerator —
// same perlin-noise height map, the same biome bucket thresholds and the
// same per-chunk deterministic rand.Rand for tree/ore placement — adapted
// from the teacher's 2D floor/active layer pair to this world's 16-deep
// voxel column.
package main

import (
	"flag"
	"math/rand"
	"os"

	"github.com/annel0/mmo-game/internal/bundle"
	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/terrainipc"
	"github.com/annel0/mmo-game/internal/vec"
	"github.com/aquilax/go-perlin"
)

// biome mirrors the teacher's BiomeType bucket, minus the two water
// buckets this world folds into a single shallow layer — there is no
// deep-water block in the catalog.
type biome int

const (
	biomePlains biome = iota
	biomeDesert
	biomeForest
	biomeMountains
	biomeWater
)

// Height-bucket thresholds, unchanged from the teacher's WorldGenerator
// constants.
const (
	waterMax      = 0.30
	activeStart   = 0.60
	mountainStart = 0.80
)

const (
	noiseScale    = 0.05
	biomeScale    = 0.02
	forestDensity = 0.05
)

// planeState is everything the generator remembers about a plane between
// InitPlane and ForgetPlane — just the flags, since every other input to
// generation (the plane's stable id) is deterministic and needs no
// per-plane storage.
type planeState struct {
	flags terrainipc.InitPlaneFlags
}

// flatWorldFlag marks a plane InitPlane'd with bit 0 set: every chunk
// comes back as a single grass floor with nothing above it, used by
// integration tests and local dev servers that don't want biome noise.
const flatWorldFlag terrainipc.InitPlaneFlags = 1 << 0

type generator struct {
	planes map[uint64]planeState
}

func newGenerator() *generator {
	return &generator{planes: make(map[uint64]planeState)}
}

func (g *generator) InitPlane(stablePlane uint64, flags terrainipc.InitPlaneFlags) error {
	g.planes[stablePlane] = planeState{flags: flags}
	return nil
}

func (g *generator) ForgetPlane(stablePlane uint64) error {
	delete(g.planes, stablePlane)
	return nil
}

// GenPlane answers with the plane's own record and nothing else — callers
// that want resident chunks ask for those separately via GenChunk. This
// world has no per-plane metadata beyond what the caller already knows
// (the stable id it minted), so the record carries an empty name; the
// caller is responsible for naming planes it creates itself.
func (g *generator) GenPlane(stablePlane uint64) (*bundle.Bundle, error) {
	b := bundle.New()
	b.Planes = append(b.Planes, bundle.PlaneRecord{StableID: stablePlane})
	return b, nil
}

func (g *generator) GenChunk(stablePlane uint64, cx, cy int32) (*bundle.Bundle, error) {
	flags := g.planes[stablePlane].flags

	var blocks [4096]catalog.BlockID
	if flags&flatWorldFlag != 0 {
		fillFlat(&blocks)
	} else {
		fillNoise(&blocks, stablePlane, cx, cy)
	}

	b := bundle.New()
	names := make([]int, 4096)
	for i, id := range blocks {
		names[i] = b.Blocks.Intern(catalog.Block(id).Name)
	}
	b.Chunks = append(b.Chunks, bundle.ChunkRecord{
		StablePlane: stablePlane,
		Pos:         [2]int32{cx, cy},
		BlockNames:  names,
	})
	return b, nil
}

// fillFlat gives every column a single grass floor at z=0 and air above —
// the flag-gated debug terrain.
func fillFlat(blocks *[4096]catalog.BlockID) {
	for x := 0; x < vec.ChunkSize; x++ {
		for y := 0; y < vec.ChunkSize; y++ {
			blocks[localIndex(x, y, 0)] = catalog.GrassBlockID
			for z := 1; z < vec.ChunkSize; z++ {
				blocks[localIndex(x, y, z)] = catalog.AirBlockID
			}
		}
	}
}

// fillNoise is the teacher's WorldGenerator.GenerateChunk, column by
// column: a height-map perlin sample picks the surface z (0..15, this
// world's full vertical extent), a second perlin sample at a different
// scale and seed offset picks the biome bucket, and a per-chunk
// deterministic rand.Rand (seeded from the plane and chunk coordinates,
// exactly like the teacher's chunkSeed) places trees, cactus and ore.
func fillNoise(blocks *[4096]catalog.BlockID, stablePlane uint64, cx, cy int32) {
	seed := int64(stablePlane)
	heightNoise := perlin.NewPerlin(2.0, 2.0, int32(3), seed)
	biomeNoise := perlin.NewPerlin(2.0, 2.0, int32(3), seed+42)

	chunkSeed := seed + int64(cx)*31 + int64(cy)*17
	rng := rand.New(rand.NewSource(chunkSeed))

	globalStartX := int(cx) * vec.ChunkSize
	globalStartY := int(cy) * vec.ChunkSize

	for x := 0; x < vec.ChunkSize; x++ {
		for y := 0; y < vec.ChunkSize; y++ {
			gx := globalStartX + x
			gy := globalStartY + y

			height := normalize(heightNoise.Noise2D(float64(gx)*noiseScale, float64(gy)*noiseScale))
			biomeValue := biomeNoise.Noise2D(float64(gx)*biomeScale, float64(gy)*biomeScale)
			bio := classifyBiome(height, biomeValue)

			surfaceZ := int(height * float64(vec.ChunkSize-1))
			fillColumn(blocks, x, y, surfaceZ, bio, rng)
		}
	}
}

// normalize maps go-perlin's [-1,1] Noise2D output to [0,1], matching the
// teacher's util.PerlinNoise2D.
func normalize(n float64) float64 { return (n + 1.0) / 2.0 }

func classifyBiome(height, biomeValue float64) biome {
	switch {
	case height < waterMax:
		return biomeWater
	case height > mountainStart:
		return biomeMountains
	}
	switch {
	case biomeValue < -0.3:
		return biomeDesert
	case biomeValue > 0.3:
		return biomeForest
	default:
		return biomePlains
	}
}

func floorBlockFor(bio biome) catalog.BlockID {
	switch bio {
	case biomeDesert:
		return catalog.SandBlockID
	case biomeMountains:
		return catalog.StoneBlockID
	case biomeWater:
		return catalog.SandBlockID
	default:
		return catalog.GrassBlockID
	}
}

// fillColumn writes one (x,y) column: stone below the surface, the
// biome's floor block at the surface, then either water (for the water
// bucket) or air up to the top of the chunk, with a chance of a tree or
// cactus stacked on top of a dry surface.
func fillColumn(blocks *[4096]catalog.BlockID, x, y, surfaceZ int, bio biome, rng *rand.Rand) {
	if surfaceZ < 0 {
		surfaceZ = 0
	}
	if surfaceZ > vec.ChunkSize-1 {
		surfaceZ = vec.ChunkSize - 1
	}

	for z := 0; z < surfaceZ; z++ {
		id := catalog.StoneBlockID
		if bio == biomeMountains && rng.Float64() < 0.1 {
			id = catalog.StoneBlockID // ore veins are stone-shaped until the catalog gains ore blocks
		}
		blocks[localIndex(x, y, z)] = id
	}

	blocks[localIndex(x, y, surfaceZ)] = floorBlockFor(bio)

	above := catalog.AirBlockID
	if bio == biomeWater {
		above = catalog.WaterBlockID
	}
	for z := surfaceZ + 1; z < vec.ChunkSize; z++ {
		blocks[localIndex(x, y, z)] = above
	}

	if bio == biomeWater {
		return
	}

	placeVegetation(blocks, x, y, surfaceZ, bio, rng)
}

func placeVegetation(blocks *[4096]catalog.BlockID, x, y, surfaceZ int, bio biome, rng *rand.Rand) {
	var id catalog.BlockID
	var height int
	switch {
	case bio == biomeForest && rng.Float64() < 0.15:
		id, height = catalog.TreeBlockID, 3+rng.Intn(3)
	case bio == biomePlains && rng.Float64() < forestDensity:
		id, height = catalog.TreeBlockID, 3+rng.Intn(3)
	case bio == biomeDesert && rng.Float64() < 0.02:
		id, height = catalog.CactusBlockID, 1
	default:
		return
	}
	for z := surfaceZ + 1; z < vec.ChunkSize && z <= surfaceZ+height; z++ {
		blocks[localIndex(x, y, z)] = id
	}
}

func localIndex(x, y, z int) int {
	return (x & 0xF) | ((y & 0xF) << 4) | ((z & 0xF) << 8)
}

func main() {
	storagePath := flag.String("storage", "", "path to the shared save-file directory (unused by this reference generator, logged for parity with the parent's spawn arguments)")
	flag.Parse()

	logging.LogInfo("terraingen: starting, storage=%q", *storagePath)

	gen := newGenerator()
	if err := terrainipc.Serve(os.Stdin, os.Stdout, gen); err != nil {
		logging.LogError("terraingen: serve loop exited: %v", err)
		os.Exit(1)
	}
}
