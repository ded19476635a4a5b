package webauthncli

import (
	"errors"

	"github.com/gravitational/trace"
)

// Kind classifies the error categories this package's callers are
// expected to branch on: invalid arguments rejected before any device
// I/O, capabilities U2F lacks, transport failures, malformed protocol
// data, and everything else.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindUnsupportedOption
	KindTransport
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindUnsupportedOption:
		return "unsupported_option"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	default:
		return "internal"
	}
}

type kindError struct {
	kind Kind
	err  error
}

func (e *kindError) Error() string { return e.err.Error() }
func (e *kindError) Unwrap() error { return e.err }
func (e *kindError) Kind() Kind    { return e.kind }

func wrapKind(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &kindError{kind: kind, err: trace.Wrap(err)}
}

// KindOf reports the Kind attached to err, or KindInternal if err
// carries no Kind (e.g. it originates outside this package).
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindInternal
}

// ErrCredentialExcluded is returned by Register when a credential in
// the exclude list is already known to the authenticator. It is kept
// distinct from the "not present" sentinel Authenticate uses
// internally for its allow-list loop so the two sentinels never
// collide in type.
var ErrCredentialExcluded = errors.New("webauthncli: credential excluded")

// ErrUserPresenceRequired is returned by Authenticate for an allow-list
// entry the authenticator recognizes but that cannot be signed for
// because user-presence was not requested.
var ErrUserPresenceRequired = errors.New("webauthncli: user presence required")

// errKeyNotPresent is the internal sentinel used by Authenticate's
// allow-list loop to mean "this id isn't on the device, try the next
// one" — distinct from ErrCredentialExcluded, which Register uses for
// its own, differently-shaped loop.
var errKeyNotPresent = errors.New("webauthncli: key not present")
