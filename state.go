package formz

// State represents the current state of a LiveForm.
type State int32

const (
	// StateLoading indicates the live form has not processed a document yet.
	StateLoading State = iota

	// StateHealthy indicates the last document was applied.
	StateHealthy

	// StateDegraded indicates the last document was rejected. The inputs
	// from the previous good document remain current.
	StateDegraded

	// StateEmpty indicates no document has ever been applied. The live form
	// keeps watching for a valid one.
	StateEmpty
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateEmpty:
		return "empty"
	default:
		return "unknown"
	}
}
