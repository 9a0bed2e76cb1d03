package secrets

import (
	"context"
	"fmt"
)

// SecretHandle is the resolved plaintext credential plus its provenance:
// "literal" when it came straight from configuration, "store:<name>" when
// it was fetched from the secret store. The handle is passed by value and
// eligible for discard as soon as the install call that consumes it
// returns. Never log or persist Value.
type SecretHandle struct {
	Value      string
	Provenance string
}

// String deliberately omits the value so a handle can appear in error
// messages and logs.
func (h SecretHandle) String() string {
	return fmt.Sprintf("SecretHandle(%s)", h.Provenance)
}

// ErrorKind classifies broker failures.
type ErrorKind int

const (
	// KindNotFound: the store has no entry under the requested name, or
	// the entry is empty.
	KindNotFound ErrorKind = iota
	// KindUnavailable: the store could not be reached at all.
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindUnavailable:
		return "Unavailable"
	default:
		return "Unknown"
	}
}

// BrokerError is the typed failure of secret resolution. Both kinds are
// fatal to the install path; the orchestrator surfaces them before any
// cluster mutation.
type BrokerError struct {
	Kind ErrorKind
	Name string
	Err  error
}

func (e *BrokerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("secret %q: %s: %v", e.Name, e.Kind, e.Err)
	}
	return fmt.Sprintf("secret %q: %s", e.Name, e.Kind)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// Store is the external versioned secret store. Implementations must not
// cache or persist values.
type Store interface {
	// Get reads the named secret. A missing or empty entry yields a
	// BrokerError with KindNotFound; an unreachable store yields
	// KindUnavailable.
	Get(ctx context.Context, name string) (string, error)

	// Delete removes the named secret. recoverable=false forces deletion
	// without a recovery window. Returns a KindNotFound BrokerError when
	// the entry is already absent.
	Delete(ctx context.Context, name string, recoverable bool) error
}
