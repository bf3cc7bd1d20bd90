// Package rpc is the wire contract between the taskmark client and backend:
// the taskmark.v1.Backend gRPC service description, its request and response
// messages, and the JSON codec they travel with.
//
// Messages are plain Go structs carried as JSON (content-subtype "json").
// Well-known protobuf messages such as emptypb.Empty go through protojson so
// both kinds can share one service.
package rpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the gRPC content-subtype clients must select, e.g. with
// grpc.CallContentSubtype(rpc.CodecName).
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return CodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
