package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/expense-tracker/internal/common"
)

// decode maps a request Struct onto a Go payload through its JSON form.
func decode(req *structpb.Struct, dst any) error {
	if req == nil {
		return nil
	}
	b, err := protojson.Marshal(req)
	if err != nil {
		return common.NewValidationError("payload", err.Error())
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return common.NewValidationError("payload", err.Error())
	}
	return nil
}

// encode renders v, which must marshal to a JSON object, as a Struct.
func encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}
