package beans

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies bean lifecycle failures.
type ErrorKind uint8

const (
	// KindUnknown is the zero kind, never produced by this module.
	KindUnknown ErrorKind = iota
	// KindScan means the component registry could not produce descriptors.
	KindScan
	// KindInstantiation means a component factory failed or panicked.
	KindInstantiation
	// KindNameConflict means a bean name was already taken.
	KindNameConflict
	// KindResolver means a class or method resolver failed on a bean.
	KindResolver
	// KindMethodNotStatic means a resolver required a static method.
	KindMethodNotStatic
	// KindMethodArgumentMismatch means a method had the wrong parameters.
	KindMethodArgumentMismatch
	// KindProtocolViolation means CreateAll was called outside the idle state.
	KindProtocolViolation
	// KindUndispatchable marks failures that must not reach a kind handler.
	KindUndispatchable
)

var kindNames = map[ErrorKind]string{
	KindUnknown:                "unknown",
	KindScan:                   "scan",
	KindInstantiation:          "instantiation",
	KindNameConflict:           "name_conflict",
	KindResolver:               "resolver",
	KindMethodNotStatic:        "method_not_static",
	KindMethodArgumentMismatch: "method_argument_mismatch",
	KindProtocolViolation:      "protocol_violation",
	KindUndispatchable:         "undispatchable",
}

// String returns the snake_case name of the kind, used for metric labels and
// message keys.
func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Kinds lists every kind produced by the lifecycle engine.
func Kinds() []ErrorKind {
	return []ErrorKind{
		KindScan,
		KindInstantiation,
		KindNameConflict,
		KindResolver,
		KindMethodNotStatic,
		KindMethodArgumentMismatch,
		KindProtocolViolation,
		KindUndispatchable,
	}
}

// Sentinel errors, one per kind, matched by errors.Is against *Error.
var (
	ErrScan                   = errors.New("component scan failed")
	ErrInstantiation          = errors.New("bean instantiation failed")
	ErrNameConflict           = errors.New("bean name conflict")
	ErrResolver               = errors.New("resolver processing failed")
	ErrMethodNotStatic        = errors.New("method is not static")
	ErrMethodArgumentMismatch = errors.New("method argument types mismatch")
	ErrProtocolViolation      = errors.New("bean lifecycle protocol violation")
	ErrUndispatchable         = errors.New("undispatchable failure")
)

var kindSentinels = map[ErrorKind]error{
	KindScan:                   ErrScan,
	KindInstantiation:          ErrInstantiation,
	KindNameConflict:           ErrNameConflict,
	KindResolver:               ErrResolver,
	KindMethodNotStatic:        ErrMethodNotStatic,
	KindMethodArgumentMismatch: ErrMethodArgumentMismatch,
	KindProtocolViolation:      ErrProtocolViolation,
	KindUndispatchable:         ErrUndispatchable,
}

// Error is the single error type of the lifecycle engine. Kind selects which
// of the payload fields are meaningful.
type Error struct {
	Kind ErrorKind

	// Bean is the resolved bean name, or the type identity before resolution.
	Bean string
	// Resolver is the name of the resolver involved, if any.
	Resolver string
	// Method is the method name for method shape and method resolver failures.
	Method string
	// Expected and Actual are the parameter type names of a mismatch.
	Expected []string
	Actual   []string
	// State is the manager state observed by a protocol violation.
	State string

	Cause error
}

// Error implements error.
func (e *Error) Error() string {
	var b strings.Builder
	switch e.Kind {
	case KindScan:
		b.WriteString("component scan failed")
	case KindInstantiation:
		fmt.Fprintf(&b, "bean %s: instantiation failed", e.Bean)
	case KindNameConflict:
		fmt.Fprintf(&b, "bean %s: name already registered", e.Bean)
	case KindResolver:
		fmt.Fprintf(&b, "bean %s: resolver %s failed", e.Bean, e.Resolver)
		if e.Method != "" {
			fmt.Fprintf(&b, " on method %s", e.Method)
		}
	case KindMethodNotStatic:
		fmt.Fprintf(&b, "bean %s: method %s must be static for resolver %s", e.Bean, e.Method, e.Resolver)
	case KindMethodArgumentMismatch:
		fmt.Fprintf(&b, "bean %s: method %s has arguments (%s), resolver %s expects (%s)",
			e.Bean, e.Method, strings.Join(e.Actual, ", "), e.Resolver, strings.Join(e.Expected, ", "))
	case KindProtocolViolation:
		fmt.Fprintf(&b, "CreateAll called in state %s", e.State)
	default:
		b.WriteString(e.Kind.String())
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// Undispatchable reports whether the error must bypass kind handlers.
func (e *Error) Undispatchable() bool {
	return e.Kind == KindUndispatchable
}

// Undispatchable is implemented by failures that must not be routed to a
// type-specific handler.
type Undispatchable interface {
	Undispatchable() bool
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}

// NewError builds an *Error for kind with a cause.
func NewError(kind ErrorKind, bean string, cause error) *Error {
	return &Error{Kind: kind, Bean: bean, Cause: cause}
}

// ResolverError wraps a resolver failure with bean and resolver identity.
func ResolverError(bean, resolver, method string, cause error) *Error {
	return &Error{Kind: KindResolver, Bean: bean, Resolver: resolver, Method: method, Cause: cause}
}

// PanicError converts a recovered panic value into an error.
func PanicError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", rec)
}
