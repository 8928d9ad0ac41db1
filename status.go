package formz

// Status is the validation status of a control.
type Status int32

const (
	// StatusValid means the control and every enabled descendant passed validation.
	StatusValid Status = iota

	// StatusInvalid means the control has errors or an enabled descendant is invalid.
	StatusInvalid

	// StatusPending means an async validation is outstanding on the control
	// or on an enabled descendant.
	StatusPending

	// StatusDisabled means the control is excluded from value and validity
	// aggregation.
	StatusDisabled
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusValid:
		return "VALID"
	case StatusInvalid:
		return "INVALID"
	case StatusPending:
		return "PENDING"
	case StatusDisabled:
		return "DISABLED"
	default:
		return "unknown"
	}
}

// UpdateOn is the trigger on which a leaf commits edits made through
// HandleChange. The zero value inherits the parent's strategy, and the
// root falls back to UpdateOnChange.
type UpdateOn string

const (
	UpdateOnChange UpdateOn = "change"
	UpdateOnBlur   UpdateOn = "blur"
	UpdateOnSubmit UpdateOn = "submit"
)

// ChangeKind is a bit set describing what a broadcast covered.
type ChangeKind uint8

const (
	ChangeValue ChangeKind = 1 << iota
	ChangeStatus
	ChangeState

	changeAll = ChangeValue | ChangeStatus | ChangeState
)

// Has reports whether every bit in f is set.
func (k ChangeKind) Has(f ChangeKind) bool {
	return k&f == f
}

// Change is the payload of AnythingChanges.
type Change struct {
	Kind    ChangeKind
	Control Control
}
