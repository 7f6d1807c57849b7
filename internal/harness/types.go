package harness

// Step results that are not error codes.
const (
	ResultOK            = "ok"
	ResultDelivered     = "delivered"
	ResultDeferred      = "deferred"
	ResultNotRetired    = "not_retired"
	ResultNotRegistered = "not_registered"
)

// TraceEntry is one line of a scenario trace: a step, or a delivery made
// to a receiver while a step ran.
type TraceEntry struct {
	// Step is the zero-based index of the step that produced the entry.
	Step int    `json:"step"`
	Op   string `json:"op"`
	View string `json:"view"`

	// Child is the attached view of a subview step.
	Child string `json:"child,omitempty"`

	// Category and Phase are set for handler and event entries.
	Category string `json:"category,omitempty"`
	Phase    string `json:"phase,omitempty"`

	// Seq is the logical clock stamp, or 0 when the step was not stamped.
	Seq int64 `json:"seq,omitempty"`

	// Result is "ok", an error code, "delivered", or a drop reason.
	Result string `json:"result"`

	// Violation is the phase-order code of an event, if any.
	Violation string `json:"violation,omitempty"`
}

// NodeState is one view of the final tree, by scenario name.
type NodeState struct {
	View     string   `json:"view"`
	Kind     string   `json:"kind"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace lists steps and deliveries in execution order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Tree is the final tree in snapshot order.
	Tree []NodeState `json:"tree"`

	// Delivered and Dropped are the router's counters at the end of the run.
	Delivered int64 `json:"delivered"`
	Dropped   int64 `json:"dropped"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
		Tree:   []NodeState{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// add appends an entry to the trace.
func (r *Result) add(e TraceEntry) {
	r.Trace = append(r.Trace, e)
}
