package types

import "fmt"

// The decode error taxonomy. All of these are terminal: they mean the input
// is fundamentally unusable for the requested decode, never that a retry
// could succeed.

// ABIError reports a contract ABI description that is malformed or
// otherwise unusable (missing type keys, tuples without components).
type ABIError struct {
	msg string
}

func NewABIError(format string, args ...interface{}) *ABIError {
	return &ABIError{msg: fmt.Sprintf(format, args...)}
}

func (e *ABIError) Error() string {
	return e.msg
}

// EventError reports an event whose declared shape is incompatible with the
// observed log data: topic count mismatches, short or malformed data
// buffers, values that cannot be represented.
type EventError struct {
	msg string
}

func NewEventError(format string, args ...interface{}) *EventError {
	return &EventError{msg: fmt.Sprintf(format, args...)}
}

func (e *EventError) Error() string {
	return e.msg
}

// UnknownEventError reports a log whose topic is not present in the topic
// map while undecoded output is disallowed.
type UnknownEventError struct {
	msg string
}

func NewUnknownEventError(format string, args ...interface{}) *UnknownEventError {
	return &UnknownEventError{msg: fmt.Sprintf(format, args...)}
}

func (e *UnknownEventError) Error() string {
	return e.msg
}

// StructLogError reports an execution trace step that is missing the stack
// or memory data required to extract a log from it.
type StructLogError struct {
	msg string
}

func NewStructLogError(format string, args ...interface{}) *StructLogError {
	return &StructLogError{msg: fmt.Sprintf(format, args...)}
}

func (e *StructLogError) Error() string {
	return e.msg
}
