package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidArguments indicates tool arguments were not a JSON object or missed a required field.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrNoGeneralNode is returned when an executor is built without the general node.
	ErrNoGeneralNode = errors.New("general node is required")
)

// NodeError wraps a capability-client failure at the node boundary.
type NodeError struct {
	Node      string
	Operation string
	Err       error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %s: %v", e.Node, e.Operation, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}
