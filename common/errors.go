package common

import (
	"github.com/pkg/errors"
)

// Error taxonomy for the indexing pipeline (spec.md §7). Scanners branch on
// these sentinels to decide whether a batch failure means rollback-and-retry,
// terminal success with no artifact, or a fatal condition needing admin
// intervention.
var (
	// ErrTransient marks a provider failure (timeout, 5xx, rate limit) that
	// should cause the current batch to roll back and be retried next cycle.
	ErrTransient = errors.New("transient provider error")

	// ErrStructural marks a payload that violates the shape this pipeline
	// requires (not just "couldn't parse", but "parsed into something the
	// schema can't hold"). The batch aborts and needs admin intervention.
	ErrStructural = errors.New("structural data error")

	// ErrUnsupportedCapability marks a capability a given provider client
	// does not implement (mirrors the original's NotImplementedError stubs
	// on MoralisAPIClient).
	ErrUnsupportedCapability = errors.New("capability not supported by provider")

	// ErrPathTraversal marks a source-file path that escapes the analyzer's
	// sandbox root. Fatal for that one source; never retried.
	ErrPathTraversal = errors.New("path traversal rejected")

	// ErrNotAirdrop is not a failure: it is the terminal "this contract is
	// not an airdrop" classification. No artifact is persisted, and no
	// error is logged as an abnormality.
	ErrNotAirdrop = errors.New("contract classified as not an airdrop")
)

// Transient wraps err as a transient provider error. err's message is kept
// in the returned error's text; errors.Cause on the result yields
// ErrTransient, not err.
func Transient(err error, msg string) error {
	return errors.Wrap(errors.WithMessage(ErrTransient, msg), err.Error())
}

// Structural wraps err as a structural data error.
func Structural(err error, msg string) error {
	return errors.Wrap(errors.WithMessage(ErrStructural, msg), err.Error())
}

// IsTransient reports whether err (or its cause chain) is a transient error.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsStructural reports whether err (or its cause chain) is a structural error.
func IsStructural(err error) bool {
	return errors.Is(err, ErrStructural)
}

// IsUnsupportedCapability reports whether err indicates a missing provider
// capability.
func IsUnsupportedCapability(err error) bool {
	return errors.Is(err, ErrUnsupportedCapability)
}

// IsPathTraversal reports whether err indicates a rejected path-traversal
// attempt from the static analyzer sandbox.
func IsPathTraversal(err error) bool {
	return errors.Is(err, ErrPathTraversal)
}

// IsNotAirdrop reports whether err is the terminal not-an-airdrop
// classification (a success outcome, not a failure).
func IsNotAirdrop(err error) bool {
	return errors.Is(err, ErrNotAirdrop)
}
