// Package api defines the wire contract of the vesting gRPC services:
// messages, service descriptors, typed clients and error codes.
//
// Messages are plain Go structs carried by a msgpack codec registered under
// the "msgpack" content subtype. Servers answer in whatever subtype the
// client asked for, so clients must use the options returned by CallOptions.
package api

import (
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content subtype of the msgpack codec.
const CodecName = "msgpack"

type codec struct{}

func (codec) Marshal(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (codec) Unmarshal(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
func (codec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(codec{})
}

// CallOptions selects the msgpack codec for every call on a connection.
func CallOptions() grpc.DialOption {
	return grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName))
}
