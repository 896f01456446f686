package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("does-not-exist")
	assert.False(t, ok)
}

func TestCodecsAreWireCompatible(t *testing.T) {
	type payload struct {
		Name  string `json:"name"`
		Stats []int  `json:"stats"`
	}
	in := payload{Name: "helmet", Stats: []int{10, 8, 6}}

	jsonBytes := MustMarshal(JSON{}, in)
	goJSONBytes := MustMarshal(GoJSON{}, in)
	assert.JSONEq(t, string(jsonBytes), string(goJSONBytes))

	var out payload
	require.NoError(t, GoJSON{}.Unmarshal(jsonBytes, &out))
	assert.Equal(t, in, out)
}

func TestCompressionRoundTrip(t *testing.T) {
	// Repetitive data so every algorithm actually compresses
	data := bytes.Repeat([]byte("setforge-job-payload-"), 256)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		block, err := c.Compress(data)
		require.NoError(t, err)

		out, err := c.Decompress(block)
		require.NoError(t, err)
		assert.Equal(t, data, out, "compression %d", c)
	}

	// LZ4 and zstd should actually shrink repetitive data
	lz4Block, err := CompressionLZ4.Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(lz4Block), len(data))

	zstdBlock, err := CompressionZstd.Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(zstdBlock), len(data))
}

func TestCompressionIncompressibleFallsBackToRaw(t *testing.T) {
	// High-entropy-ish short data is stored raw with a zero marker
	data := []byte{0x01, 0xfe, 0x42, 0x99, 0x7b}

	block, err := CompressionLZ4.Compress(data)
	require.NoError(t, err)

	out, err := CompressionLZ4.Decompress(block)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDecompressRejectsTruncatedBlock(t *testing.T) {
	_, err := CompressionLZ4.Decompress([]byte{0x01, 0x02})
	assert.Error(t, err)
}

func TestCompressionEmptyPayload(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		block, err := c.Compress(nil)
		require.NoError(t, err)

		out, err := c.Decompress(block)
		require.NoError(t, err)
		assert.Empty(t, out, "compression %d", c)
	}
}
