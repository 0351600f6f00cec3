package internal

// StepKey are keys use in steps
type StepKey uint8

const (
	// ParentNameKey for the path of the enclosing organizer
	ParentNameKey StepKey = iota
	// DeciderKey for the compensation error policy used by rollbacks
	DeciderKey
	// FlowCheckedKey marks that the outermost organizer validated the attribute flow of its whole tree
	FlowCheckedKey
)
