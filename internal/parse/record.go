package parse

import (
	"encoding/json"
	"fmt"

	"github.com/Zuo-Peng/ai-session-stats/internal/logger"
	"github.com/tidwall/gjson"
)

// Record is one decoded block. The shape is open; callers read the fields
// they need by gjson path, e.g. "payload.content".
type Record struct {
	raw []byte
}

// NewRecord wraps JSON text that is already known to be valid.
func NewRecord(raw []byte) Record {
	return Record{raw: raw}
}

// Raw returns the record's JSON text as it appeared in the block.
func (r Record) Raw() []byte { return r.raw }

func (r Record) Get(path string) gjson.Result {
	return gjson.GetBytes(r.raw, path)
}

// Str returns the string at path, or "" when it is missing or not a string.
func (r Record) Str(path string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

// Timestamp is the record's top-level timestamp string.
func (r Record) Timestamp() string { return r.Str("timestamp") }

// Payload is the record's payload value; it may not exist or not be an object.
func (r Record) Payload() gjson.Result { return r.Get("payload") }

// DecodeError is a block that is not valid JSON.
type DecodeError struct {
	Index  int   // position of the block in the transcript
	Offset int64 // byte offset inside the block, when known
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("block %d: %v", e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoded is the result of decoding one block: either Record is set and
// Err is nil, or Err describes why the block was rejected.
type Decoded struct {
	Block  string
	Record Record
	Err    error
}

func (d Decoded) OK() bool { return d.Err == nil }

// Decode parses a single block. index is only used for diagnostics.
func Decode(index int, block string) Decoded {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		derr := &DecodeError{Index: index, Err: err}
		if syn, ok := err.(*json.SyntaxError); ok {
			derr.Offset = syn.Offset
		}
		return Decoded{Block: block, Err: derr}
	}
	return Decoded{Block: block, Record: Record{raw: raw}}
}

// DecodeAll decodes every block, keeping failures in place.
func DecodeAll(blocks []string) []Decoded {
	out := make([]Decoded, len(blocks))
	for i, b := range blocks {
		out[i] = Decode(i, b)
	}
	return out
}

// Records runs the tolerant pipeline over raw text: split, decode, and drop
// blocks that do not decode. Dropped blocks are logged.
func Records(raw string) []Record {
	decoded := DecodeAll(SplitBlocks(raw))
	records := make([]Record, 0, len(decoded))
	for _, d := range decoded {
		if !d.OK() {
			logger.Logger.Warn().Err(d.Err).Int("bytes", len(d.Block)).Msg("skipped malformed JSON block")
			continue
		}
		records = append(records, d.Record)
	}
	return records
}

// RecordsStrict is the all-or-nothing pipeline used before rewriting a file.
func RecordsStrict(raw string) ([]Record, error) {
	blocks, err := SplitBlocksStrict(raw)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(blocks))
	for i, b := range blocks {
		d := Decode(i, b)
		if !d.OK() {
			return nil, d.Err
		}
		records = append(records, d.Record)
	}
	return records, nil
}
