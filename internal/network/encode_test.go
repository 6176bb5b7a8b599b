package network

import (
	"testing"

	"github.com/annel0/mmo-game/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRLEEncodeDecodeRoundTripFlatChunk(t *testing.T) {
	var blocks [4096]catalog.BlockID
	for i := range blocks {
		blocks[i] = catalog.BlockID(3)
	}

	runs := rleEncode(blocks[:])
	require.Len(t, runs, 1)
	assert.Equal(t, uint16(4096), runs[0].length)

	var out [4096]catalog.BlockID
	rleDecode(runs, out[:])
	assert.Equal(t, blocks, out)
}

func TestRLEEncodeDecodeRoundTripMixedChunk(t *testing.T) {
	var blocks [4096]catalog.BlockID
	for i := 0; i < 2000; i++ {
		blocks[i] = catalog.BlockID(1)
	}
	for i := 2000; i < 4096; i++ {
		blocks[i] = catalog.BlockID(2)
	}

	runs := rleEncode(blocks[:])
	require.Len(t, runs, 2)

	var out [4096]catalog.BlockID
	rleDecode(runs, out[:])
	assert.Equal(t, blocks, out)
}

func TestRLEEncodeEmptyInput(t *testing.T) {
	assert.Nil(t, rleEncode(nil))
}
