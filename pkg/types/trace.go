package types

// TraceStep is one entry of the structLogs array returned by geth's
// debug_traceTransaction. Stack and Memory hold hex words as the node
// produced them; for the stack, the top element is last, per geth's
// evaluation-order convention.
type TraceStep struct {
	Pc      uint64   `json:"pc"`
	Op      string   `json:"op"`
	Gas     uint64   `json:"gas"`
	GasCost uint64   `json:"gasCost"`
	Depth   int      `json:"depth"`
	Error   string   `json:"error,omitempty"`
	Stack   []string `json:"stack"`
	Memory  []string `json:"memory"`
}
