package main

import (
	"testing"

	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalIndexMatchesShapeCacheCellIndex(t *testing.T) {
	assert.Equal(t, 0, localIndex(0, 0, 0))
	assert.Equal(t, 1, localIndex(1, 0, 0))
	assert.Equal(t, 16, localIndex(0, 1, 0))
	assert.Equal(t, 256, localIndex(0, 0, 1))
	assert.Equal(t, 4095, localIndex(15, 15, 15))
}

func TestClassifyBiomeBucketsByHeightAndBiomeValue(t *testing.T) {
	assert.Equal(t, biomeWater, classifyBiome(0.1, 0))
	assert.Equal(t, biomeMountains, classifyBiome(0.9, 0))
	assert.Equal(t, biomeDesert, classifyBiome(0.5, -0.5))
	assert.Equal(t, biomeForest, classifyBiome(0.5, 0.5))
	assert.Equal(t, biomePlains, classifyBiome(0.5, 0))
}

func TestFillFlatIsGrassFloorOverAir(t *testing.T) {
	var blocks [4096]catalog.BlockID
	fillFlat(&blocks)
	assert.Equal(t, catalog.GrassBlockID, blocks[localIndex(3, 7, 0)])
	assert.Equal(t, catalog.AirBlockID, blocks[localIndex(3, 7, 1)])
	assert.Equal(t, catalog.AirBlockID, blocks[localIndex(3, 7, 15)])
}

func TestGenChunkIsDeterministicForSameCoordinates(t *testing.T) {
	g := newGenerator()
	require.NoError(t, g.InitPlane(1, 0))

	b1, err := g.GenChunk(1, 5, -3)
	require.NoError(t, err)
	b2, err := g.GenChunk(1, 5, -3)
	require.NoError(t, err)

	require.Len(t, b1.Chunks, 1)
	require.Len(t, b2.Chunks, 1)
	assert.Equal(t, b1.Chunks[0].BlockNames, b2.Chunks[0].BlockNames)
}

func TestGenChunkFlatFlagSkipsNoise(t *testing.T) {
	g := newGenerator()
	require.NoError(t, g.InitPlane(2, flatWorldFlag))

	b, err := g.GenChunk(2, 0, 0)
	require.NoError(t, err)
	require.Len(t, b.Chunks, 1)

	grassIdx := b.Blocks.Intern("grass")
	airIdx := b.Blocks.Intern("air")
	assert.Equal(t, grassIdx, b.Chunks[0].BlockNames[localIndex(0, 0, 0)])
	assert.Equal(t, airIdx, b.Chunks[0].BlockNames[localIndex(0, 0, 1)])
}

func TestForgetPlaneDropsInitFlags(t *testing.T) {
	g := newGenerator()
	require.NoError(t, g.InitPlane(9, flatWorldFlag))
	require.NoError(t, g.ForgetPlane(9))

	b, err := g.GenChunk(9, 0, 0)
	require.NoError(t, err)
	grassIdx := b.Blocks.Intern("grass")
	assert.NotEqual(t, grassIdx, b.Chunks[0].BlockNames[localIndex(0, 0, 1)], "chunk should be noise-generated, not flat, after forgetting the flat flag")
}
