// Package topicRegistry derives the canonical event topics for a contract
// ABI and builds the topic-to-schema map the decoders look events up in.
package topicRegistry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/evmkit/ethevent/pkg/types"
)

// Matches tuple, tuple[] and tuple[N]. The capture group keeps the array
// suffix so it can be re-applied after the components are expanded.
var tuplePattern = regexp.MustCompile(`^tuple(\[\d*\])?$`)

// CanonicalTypes renders an ordered parameter list into the canonical type
// strings used for signature hashing and codec calls. Tuples expand
// recursively into a parenthesized, comma-joined component list with the
// original array suffix re-appended; every other type passes through
// unchanged. Nesting depth is bounded only by the ABI itself.
func CanonicalTypes(params []types.ParameterSpec) ([]string, error) {
	canonical := make([]string, 0, len(params))
	for _, param := range params {
		if param.Type == "" {
			return nil, types.NewABIError("abi parameter %q has no type", param.Name)
		}
		match := tuplePattern.FindStringSubmatch(param.Type)
		if match == nil {
			canonical = append(canonical, param.Type)
			continue
		}
		if param.Components == nil {
			return nil, types.NewABIError("tuple parameter %q has no components", param.Name)
		}
		inner, err := CanonicalTypes(param.Components)
		if err != nil {
			return nil, err
		}
		canonical = append(canonical, fmt.Sprintf("(%s)%s", strings.Join(inner, ","), match[1]))
	}
	return canonical, nil
}

// EventSignature builds the canonical signature string name(type1,type2,...)
// for a well-formed, non-anonymous event entry.
func EventSignature(event types.ABIEntry) (string, error) {
	if event.Anonymous {
		return "", types.NewABIError("anonymous events do not have a topic")
	}
	if event.Name == "" || event.Inputs == nil {
		return "", types.NewABIError("not a well-formed event description")
	}
	canonical, err := CanonicalTypes(event.Inputs)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", event.Name, strings.Join(canonical, ",")), nil
}
