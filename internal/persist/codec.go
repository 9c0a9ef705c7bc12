package persist

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"sandfall/internal/chunk"
	"sandfall/internal/particle"
)

// CodecVersion is written into every encoded chunk.
const CodecVersion = 1

// ChunkV1 is the persisted form of a chunk. Tick stamps and bookkeeping are
// not persisted: a decoded chunk starts at generation zero.
type ChunkV1 struct {
	Version int
	X, Y    int32
	Cells   []CellV1
}

// CellV1 is the persisted form of a cell.
type CellV1 struct {
	Material    uint8
	VX, VY      float32
	Temperature float32
	Moisture    float32
	Lifetime    uint16
}

// EncodeChunk writes c as zstd-compressed gob.
func EncodeChunk(w io.Writer, c *chunk.Chunk) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(enc)
	if err := gob.NewEncoder(bw).Encode(toV1(c)); err != nil {
		_ = enc.Close()
		return fmt.Errorf("gob encode chunk %v: %w", c.Origin(), err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// DecodeChunk reads a chunk written by EncodeChunk.
func DecodeChunk(r io.Reader) (*chunk.Chunk, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var v ChunkV1
	if err := gob.NewDecoder(bufio.NewReader(dec)).Decode(&v); err != nil {
		return nil, fmt.Errorf("gob decode chunk: %w", err)
	}
	return fromV1(&v)
}

// MarshalChunk encodes c into a byte slice.
func MarshalChunk(c *chunk.Chunk) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeChunk(&buf, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalChunk decodes a byte slice produced by MarshalChunk.
func UnmarshalChunk(data []byte) (*chunk.Chunk, error) {
	return DecodeChunk(bytes.NewReader(data))
}

func toV1(c *chunk.Chunk) *ChunkV1 {
	o := c.Origin()
	v := &ChunkV1{Version: CodecVersion, X: o.X, Y: o.Y, Cells: make([]CellV1, chunk.Area)}
	for i, cell := range c.Cells() {
		v.Cells[i] = CellV1{
			Material:    uint8(cell.Material),
			VX:          cell.VX,
			VY:          cell.VY,
			Temperature: cell.Temperature,
			Moisture:    cell.Moisture,
			Lifetime:    cell.Lifetime,
		}
	}
	return v
}

func fromV1(v *ChunkV1) (*chunk.Chunk, error) {
	if v.Version != CodecVersion {
		return nil, fmt.Errorf("chunk (%d,%d): unsupported codec version %d", v.X, v.Y, v.Version)
	}
	if len(v.Cells) != chunk.Area {
		return nil, fmt.Errorf("chunk (%d,%d): %d cells, want %d", v.X, v.Y, len(v.Cells), chunk.Area)
	}
	var cells [chunk.Area]particle.Cell
	for i, c := range v.Cells {
		id := particle.ID(c.Material)
		if !id.Valid() {
			return nil, fmt.Errorf("chunk (%d,%d): unknown material %d at %d", v.X, v.Y, c.Material, i)
		}
		cells[i] = particle.Cell{
			Material:    id,
			VX:          c.VX,
			VY:          c.VY,
			Temperature: c.Temperature,
			Moisture:    c.Moisture,
			Lifetime:    c.Lifetime,
		}
	}
	return chunk.Load(chunk.Coord{X: v.X, Y: v.Y}, &cells), nil
}
