package tree

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrIntegrity is matched by every structural violation of the collection:
	// dangling parents, missing or duplicate roots, duplicate keys and cycles.
	// These are data errors and must not be retried.
	ErrIntegrity = errors.New("tree integrity violation")

	// ErrUsage is matched by errors caused by invalid arguments, such as a
	// negative depth or an unknown key.
	ErrUsage = errors.New("invalid tree operation")
)

// DanglingParentError reports a node whose parent key does not resolve.
type DanglingParentError struct {
	Key    Key
	Parent Key
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("node %d: parent %d does not exist", e.Key, e.Parent)
}

func (e *DanglingParentError) Is(target error) bool { return target == ErrIntegrity }

// NoRootError reports a collection without a valid root. Orphan is set when
// exactly one parentless node exists but its key is not RootKey.
type NoRootError struct {
	Orphan *Key
}

func (e *NoRootError) Error() string {
	if e.Orphan != nil {
		return fmt.Sprintf("no root: node %d has no parent but only key %d may be the root", *e.Orphan, RootKey)
	}
	return "no root: every node has a parent"
}

func (e *NoRootError) Is(target error) bool { return target == ErrIntegrity }

// MultipleRootsError reports more than one parentless node.
type MultipleRootsError struct {
	Keys []Key
}

func (e *MultipleRootsError) Error() string {
	parts := make([]string, len(e.Keys))
	for i, k := range e.Keys {
		parts[i] = fmt.Sprint(k)
	}
	return fmt.Sprintf("multiple roots: nodes %s have no parent", strings.Join(parts, ", "))
}

func (e *MultipleRootsError) Is(target error) bool { return target == ErrIntegrity }

// DuplicateKeyError reports two nodes sharing a key.
type DuplicateKeyError struct {
	Key Key
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate node key %d", e.Key)
}

func (e *DuplicateKeyError) Is(target error) bool { return target == ErrIntegrity }

// CycleDetectedError reports a node visited twice by a traversal, or a node
// that cannot be reached from the root because its ancestor chain loops.
type CycleDetectedError struct {
	Key Key
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected at node %d", e.Key)
}

func (e *CycleDetectedError) Is(target error) bool { return target == ErrIntegrity }

// InvalidDepthError reports a negative expansion depth.
type InvalidDepthError struct {
	Depth int
}

func (e *InvalidDepthError) Error() string {
	return fmt.Sprintf("invalid depth %d: must be >= 0", e.Depth)
}

func (e *InvalidDepthError) Is(target error) bool { return target == ErrUsage }

// UnknownNodeError reports a key that is not part of the collection.
type UnknownNodeError struct {
	Key Key
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %d", e.Key)
}

func (e *UnknownNodeError) Is(target error) bool { return target == ErrUsage }

// NotBranchError reports an operation that requires a direct child of the
// root, such as moving a branch to the other side.
type NotBranchError struct {
	Key Key
}

func (e *NotBranchError) Error() string {
	return fmt.Sprintf("node %d is not a direct child of the root", e.Key)
}

func (e *NotBranchError) Is(target error) bool { return target == ErrUsage }

func sortedKeys(keys []Key) []Key {
	out := slices.Clone(keys)
	slices.Sort(out)
	return out
}
