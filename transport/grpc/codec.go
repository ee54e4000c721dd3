package grpc

import (
	"bytes"
	"encoding/gob"

	"google.golang.org/grpc/encoding"
)

// codecName is the call content-subtype: once a client selects
// CallContentSubtype(codecName), its requests carry the content-type
// "application/grpc+gob" and both ends marshal them with gobCodec.
const codecName = "gob"

// gobCodec is a grpc/encoding.Codec backed by encoding/gob, standing in
// for the protobuf codec grpc-go uses by default when generated stubs
// are available.
type gobCodec struct{}

func (gobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (gobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

func (gobCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(gobCodec{})
}

// RegisterCommandType makes a concrete raft.Command type gob-decodable
// across the wire. Call it once at startup for every command type an
// embedder's log entries may carry, e.g.
// RegisterCommandType(kvstatemachine.Command{}).
func RegisterCommandType(v any) {
	gob.Register(v)
}
