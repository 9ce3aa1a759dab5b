// Package ringerr defines the recoverable error taxonomy shared by ring,
// trivialring, views, and pipeline. Programmer-error contracts are not
// part of this taxonomy: exceeding segset.Pair's fixed capacity aborts the
// process via panic at the point of violation, matching the teacher's
// panic("ring: size must be >0 and power of two") convention. Dual-role
// SPSC misuse (one party both pushing and popping) is not detected.
package ringerr

import "github.com/pkg/errors"

// Kind classifies a recoverable error condition for coarse-grained
// branching via KindOf, when a caller wants to react to a category of
// failure rather than one specific sentinel.
type Kind int

const (
	// KindAllocationFailure means the backing storage for a ring could
	// not be obtained. Surfaced at construction time.
	KindAllocationFailure Kind = iota
	// KindOutOfRange covers advance_read/commit/reserve_write_space
	// overflow and checked element access past size.
	KindOutOfRange
	// KindTransferFailure is propagated from a pipeline Adapter.
	KindTransferFailure
	// KindUnknown is returned by KindOf for errors outside this taxonomy.
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindAllocationFailure:
		return "allocation failure"
	case KindOutOfRange:
		return "out of range"
	case KindTransferFailure:
		return "transfer failure"
	default:
		return "unknown"
	}
}

// Sentinels usable with errors.Is. ErrOutOfRange is the broad
// KindOutOfRange representative: Wrap chains ErrAdvanceOverflow,
// ErrCommitOverflow, and ErrInsufficientSpace to it, so
// errors.Is(err, ErrOutOfRange) matches any of the three specific
// conditions as well as a direct ErrOutOfRange wrap.
var (
	ErrAllocationFailure = errors.New("ringerr: allocation failure")
	ErrAdvanceOverflow   = errors.New("ringerr: advance_read(n) exceeds size")
	ErrCommitOverflow    = errors.New("ringerr: commit(n) exceeds view capacity")
	ErrInsufficientSpace = errors.New("ringerr: reserve_write_space(n) exceeds available")
	ErrOutOfRange        = errors.New("ringerr: index out of range")
	ErrTransferFailure   = errors.New("ringerr: adapter transfer failed")
)

// kindRepresentative returns the broad kind sentinel a specific sentinel
// should additionally satisfy errors.Is against, or nil if sentinel is
// already its own kind's representative.
func kindRepresentative(sentinel error) error {
	switch sentinel {
	case ErrAdvanceOverflow, ErrCommitOverflow, ErrInsufficientSpace:
		return ErrOutOfRange
	default:
		return nil
	}
}

// multiSentinel lets one error satisfy errors.Is against more than one
// sentinel at once, via the Go 1.20+ Unwrap() []error convention.
type multiSentinel struct {
	error
	extra error
}

func (m *multiSentinel) Unwrap() []error { return []error{m.error, m.extra} }

// Wrap attaches a stack trace and message to a sentinel via pkg/errors,
// preserving errors.Is/errors.As against the sentinel. When sentinel
// belongs to a broader Kind with its own representative sentinel (see
// kindRepresentative), the result also matches errors.Is against that
// representative.
func Wrap(sentinel error, msg string) error {
	base := errors.WithMessage(errors.WithStack(sentinel), msg)
	if rep := kindRepresentative(sentinel); rep != nil {
		return &multiSentinel{error: base, extra: rep}
	}
	return base
}

// WrapTransfer wraps an adapter-reported failure so it carries a stack
// trace, the original cause (via errors.Is/errors.As through the
// pkg/errors chain), and errors.Is(err, ErrTransferFailure) besides.
func WrapTransfer(cause error, msg string) error {
	base := errors.WithMessage(errors.WithStack(cause), msg)
	return &multiSentinel{error: base, extra: ErrTransferFailure}
}

// KindOf classifies err against the sentinels above, returning
// KindUnknown if err doesn't match any of them.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrTransferFailure):
		return KindTransferFailure
	case errors.Is(err, ErrAllocationFailure):
		return KindAllocationFailure
	case errors.Is(err, ErrOutOfRange):
		return KindOutOfRange
	default:
		return KindUnknown
	}
}
