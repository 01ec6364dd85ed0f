// Package wordCodec is the boundary around go-ethereum's ABI codec. It
// turns parameter specs into abi.Arguments, unpacks byte buffers against
// them, and translates the codec's failures into this module's error
// taxonomy so callers never see go-ethereum error strings leak through
// untyped.
package wordCodec

import (
	"reflect"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/evmkit/ethevent/pkg/types"
)

// Arguments converts parameter specs into go-ethereum abi.Arguments,
// resolving tuple components recursively. A parameter without a type, a
// tuple without components, or a type string the codec rejects is an
// ABIError.
func Arguments(params []types.ParameterSpec) (gethabi.Arguments, error) {
	args := make(gethabi.Arguments, 0, len(params))
	for _, param := range params {
		if param.Type == "" {
			return nil, types.NewABIError("abi parameter %q has no type", param.Name)
		}
		var components []gethabi.ArgumentMarshaling
		if strings.HasPrefix(param.Type, "tuple") {
			if param.Components == nil {
				return nil, types.NewABIError("tuple parameter %q has no components", param.Name)
			}
			var err error
			components, err = marshaling(param.Components)
			if err != nil {
				return nil, err
			}
		}
		argType, err := gethabi.NewType(param.Type, "", components)
		if err != nil {
			return nil, types.NewABIError("unsupported abi type %q: %v", param.Type, err)
		}
		// Indexed stays false regardless of the spec: the codec skips
		// indexed arguments when unpacking, and the caller decides which
		// parameters decode from the data buffer.
		args = append(args, gethabi.Argument{Name: param.Name, Type: argType})
	}
	return args, nil
}

func marshaling(params []types.ParameterSpec) ([]gethabi.ArgumentMarshaling, error) {
	out := make([]gethabi.ArgumentMarshaling, 0, len(params))
	for _, param := range params {
		if param.Type == "" {
			return nil, types.NewABIError("abi parameter %q has no type", param.Name)
		}
		m := gethabi.ArgumentMarshaling{Name: param.Name, Type: param.Type}
		if strings.HasPrefix(param.Type, "tuple") {
			if param.Components == nil {
				return nil, types.NewABIError("tuple parameter %q has no components", param.Name)
			}
			var err error
			m.Components, err = marshaling(param.Components)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// DecodeValues unpacks an ABI-encoded buffer against the given parameters
// and returns one value per parameter, in declaration order. Codec
// failures come back as EventError per the taxonomy; an undecodable
// parameter list is an ABIError.
func DecodeValues(params []types.ParameterSpec, data []byte) ([]interface{}, error) {
	args, err := Arguments(params)
	if err != nil {
		return nil, err
	}
	values, err := args.UnpackValues(data)
	if err != nil {
		return nil, translateUnpackError(err)
	}
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = normalizeValue(v)
	}
	return out, nil
}

// DecodeSingle decodes one 32 byte topic word as the given parameter type.
// The boolean result reports whether the value is representable as a
// scalar: dynamic types and multi-word composites only carry a hash or a
// truncated slot in a topic, so they come back undecoded and the caller
// keeps the raw word instead.
func DecodeSingle(param types.ParameterSpec, word []byte) (interface{}, bool) {
	args, err := Arguments([]types.ParameterSpec{param})
	if err != nil {
		return nil, false
	}
	switch args[0].Type.T {
	case gethabi.StringTy, gethabi.BytesTy, gethabi.SliceTy, gethabi.ArrayTy, gethabi.TupleTy:
		return nil, false
	}
	values, err := args.UnpackValues(word)
	if err != nil || len(values) != 1 {
		return nil, false
	}
	return normalizeValue(values[0]), true
}

// translateUnpackError maps go-ethereum unpack failures onto the EventError
// taxonomy. The codec reports conditions through error strings, so the
// classification is by message: short buffers, out-of-range small integers
// (the codec calls these "improperly encoded <int> value"), non-zero
// padding, and bad internal offsets each get their own rendering.
func translateUnpackError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "length insufficient"),
		strings.Contains(msg, "empty string while arguments are expected"):
		return types.NewEventError("event data has insufficient length")
	case strings.Contains(msg, "improperly encoded int"),
		strings.Contains(msg, "improperly encoded uint"):
		return types.NewEventError("cannot decode event due to overflow error")
	case strings.Contains(msg, "improperly encoded"):
		return types.NewEventError("malformed data field in event log")
	default:
		// offset/length pointer failures and anything else the codec
		// reports; the detail is the most useful thing to surface.
		return types.NewEventError("%s", msg)
	}
}

// normalizeValue renders byte values as 0x hex strings and addresses in
// checksummed form, matching the hex normalization applied to the rest of
// the log. Other values pass through as the codec produced them.
func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case []byte:
		return hexutil.Encode(v)
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		buf := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(buf), rv)
		return hexutil.Encode(buf)
	}
	return value
}
