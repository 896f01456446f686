package archive

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/hupe1980/setforge/codec"
	"github.com/hupe1980/setforge/model"
)

// Record is one archived dispatch: the job spec as sent, the outcome, and
// when it ran. Failed jobs archive the error string instead of a result.
type Record struct {
	Spec      *model.SearchJobSpec `json:"spec"`
	Result    *model.SearchResult  `json:"result,omitempty"`
	Error     string               `json:"error,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Archive writes and reads records against a Store, framing each blob with
// the codec name so records remain readable when the default codec changes.
type Archive struct {
	store       Store
	codec       codec.Codec
	compression codec.Compression
}

// New creates an Archive. A nil codec falls back to codec.Default.
func New(store Store, c codec.Codec, compression codec.Compression) *Archive {
	if c == nil {
		c = codec.Default
	}
	return &Archive{store: store, codec: c, compression: compression}
}

// frame: [codecNameLen uint16][codecName][compression uint8][block...]
func (a *Archive) encode(rec *Record) ([]byte, error) {
	body, err := a.codec.Marshal(rec)
	if err != nil {
		return nil, err
	}
	block, err := a.compression.Compress(body)
	if err != nil {
		return nil, err
	}

	name := a.codec.Name()
	out := make([]byte, 0, 3+len(name)+len(block))
	out = binary.LittleEndian.AppendUint16(out, uint16(len(name)))
	out = append(out, name...)
	out = append(out, byte(a.compression))
	return append(out, block...), nil
}

func decode(data []byte) (*Record, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("record too small for header")
	}
	nameLen := int(binary.LittleEndian.Uint16(data[0:]))
	if len(data) < 3+nameLen {
		return nil, fmt.Errorf("record too small for codec name")
	}
	name := string(data[2 : 2+nameLen])
	c, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown record codec %q", name)
	}
	compression := codec.Compression(data[2+nameLen])

	body, err := compression.Decompress(data[3+nameLen:])
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := c.Unmarshal(body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Save archives a record under the given job id.
func (a *Archive) Save(ctx context.Context, jobID string, rec *Record) error {
	data, err := a.encode(rec)
	if err != nil {
		return fmt.Errorf("encode archive record %s: %w", jobID, err)
	}
	return a.store.Put(ctx, jobID, data)
}

// Load reads an archived record back.
func (a *Archive) Load(ctx context.Context, jobID string) (*Record, error) {
	data, err := a.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// List returns the ids of all archived records.
func (a *Archive) List(ctx context.Context) ([]string, error) {
	return a.store.List(ctx, "")
}

// Delete removes an archived record.
func (a *Archive) Delete(ctx context.Context, jobID string) error {
	return a.store.Delete(ctx, jobID)
}
