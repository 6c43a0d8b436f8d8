package ir

import "fmt"

// Kind enumerates the IR construction and emission error taxonomy from the
// specification. Every error this package and nasmgen raise themselves
// carries one of these; errors from the output writer are returned as is.
type Kind int

const (
	// DuplicateName: adding a function/block/global/param/local whose name
	// already exists.
	DuplicateName Kind = iota
	// UnknownBlock: a function entry naming an unregistered block. Jump and
	// CondJump targets are not checked.
	UnknownBlock
	// UnknownFunction: set_entry or a callee not registered.
	UnknownFunction
	// Terminated: appending to a block that already ends in a terminator.
	Terminated
	// MissingEntry: emitting a program or function whose entry is unset.
	MissingEntry
	// NonTerminatedBlock: a block lacking a terminator at emission time.
	NonTerminatedBlock
	// MalformedTemplate: the header template lacks the entry placeholder.
	MalformedTemplate
	// InvalidLayout: a zero-sized param/local/return was supplied.
	InvalidLayout
	// UnsupportedTarget: a GOOS outside {linux, macos, windows}.
	UnsupportedTarget
	// OutOfRange: an index access beyond a block's instruction count.
	OutOfRange
)

var kindNames = [...]string{
	DuplicateName:      "DuplicateName",
	UnknownBlock:       "UnknownBlock",
	UnknownFunction:    "UnknownFunction",
	Terminated:         "Terminated",
	MissingEntry:       "MissingEntry",
	NonTerminatedBlock: "NonTerminatedBlock",
	MalformedTemplate:  "MalformedTemplate",
	InvalidLayout:      "InvalidLayout",
	UnsupportedTarget:  "UnsupportedTarget",
	OutOfRange:         "OutOfRange",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UnknownKind"
	}
	return kindNames[k]
}

// Error is the single error type returned by IR construction and emission.
// It always carries a Kind and, where applicable, the offending Name so a
// caller can diagnose the first violation without guessing.
type Error struct {
	Kind Kind
	Name string
	msg  string
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Name, e.msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

// newErr builds an *Error for the given kind, name, and human-readable
// detail message.
func newErr(kind Kind, name, msg string) *Error {
	return &Error{Kind: kind, Name: name, msg: msg}
}

// Is supports errors.Is(err, target) comparisons keyed purely on Kind, so
// callers can write `errors.Is(err, &ir.Error{Kind: ir.DuplicateName})`
// without caring about Name or msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
