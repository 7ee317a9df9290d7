package light

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Error kinds follow a common pattern: an unexported struct satisfying the
// error interface, a constructor that wraps it with github.com/pkg/errors,
// and an IsErrXxx predicate built on errors.Cause.

type errIoFault struct{ reason string }

func (e errIoFault) Error() string { return fmt.Sprintf("io fault: %s", e.reason) }

// ErrIoFault wraps a transport failure, decoding failure, or missing block.
// Recoverable by peer rotation.
func ErrIoFault(reason string) error { return errors.Wrap(errIoFault{reason}, "") }

// IsErrIoFault reports whether err is (or wraps) an IoFault, including its
// Timeout subtype.
func IsErrIoFault(err error) bool {
	switch errors.Cause(err).(type) {
	case errIoFault, errTimeout:
		return true
	}
	return false
}

type errTimeout struct{ duration time.Duration }

func (e errTimeout) Error() string { return fmt.Sprintf("timed out after %s", e.duration) }

// ErrTimeout is a subtype of IoFault distinguishable for telemetry and
// rotation policy.
func ErrTimeout(d time.Duration) error { return errors.Wrap(errTimeout{d}, "") }

// IsErrTimeout reports whether err is (or wraps) a Timeout.
func IsErrTimeout(err error) bool {
	_, ok := errors.Cause(err).(errTimeout)
	return ok
}

type errInvalidLightBlock struct{ detail error }

func (e errInvalidLightBlock) Error() string {
	return fmt.Sprintf("invalid light block: %s", e.detail)
}

// ErrInvalidLightBlock wraps any predicate failure that produced
// Verdict::Invalid. Fatal for that block; the block is interred as Failed.
func ErrInvalidLightBlock(detail error) error {
	return errors.Wrap(errInvalidLightBlock{detail}, "")
}

// IsErrInvalidLightBlock reports whether err is (or wraps) an
// InvalidLightBlock, and if so returns the wrapped detail.
func IsErrInvalidLightBlock(err error) (error, bool) {
	e, ok := errors.Cause(err).(errInvalidLightBlock)
	if !ok {
		return nil, false
	}
	return e.detail, true
}

type errNoProgress struct{}

func (e errNoProgress) Error() string {
	return "scheduler could not make progress toward the target height"
}

// ErrNoProgress surfaces when the scheduler cannot advance past a
// NotEnoughTrust verdict.
func ErrNoProgress() error { return errors.Wrap(errNoProgress{}, "") }

// IsErrNoProgress reports whether err is (or wraps) NoProgress.
func IsErrNoProgress(err error) bool {
	_, ok := errors.Cause(err).(errNoProgress)
	return ok
}

type errNoInitialTrustedState struct{}

func (e errNoInitialTrustedState) Error() string {
	return "no initial trusted state: light store has not been seeded"
}

// ErrNoInitialTrustedState is returned when verification is invoked before
// seeding a trusted block.
func ErrNoInitialTrustedState() error { return errors.Wrap(errNoInitialTrustedState{}, "") }

// IsErrNoInitialTrustedState reports whether err is (or wraps)
// NoInitialTrustedState.
func IsErrNoInitialTrustedState(err error) bool {
	_, ok := errors.Cause(err).(errNoInitialTrustedState)
	return ok
}

type errTrustedStateOutsideTrustingPeriod struct {
	height Height
	at     time.Time
}

func (e errTrustedStateOutsideTrustingPeriod) Error() string {
	return fmt.Sprintf("trusted state at height %d (time %s) is outside the trusting period",
		e.height, e.at)
}

// ErrTrustedStateOutsideTrustingPeriod is returned when the latest trusted
// block has expired. Recoverable only by operator intervention (new
// subjective initialization).
func ErrTrustedStateOutsideTrustingPeriod(height Height, at time.Time) error {
	return errors.Wrap(errTrustedStateOutsideTrustingPeriod{height, at}, "")
}

// IsErrTrustedStateOutsideTrustingPeriod reports whether err is (or wraps)
// TrustedStateOutsideTrustingPeriod.
func IsErrTrustedStateOutsideTrustingPeriod(err error) bool {
	_, ok := errors.Cause(err).(errTrustedStateOutsideTrustingPeriod)
	return ok
}

type errTargetLowerThanTrustedState struct {
	target, trusted Height
}

func (e errTargetLowerThanTrustedState) Error() string {
	return fmt.Sprintf("target height %d is lower than trusted height %d and backward "+
		"verification is disabled", e.target, e.trusted)
}

// ErrTargetLowerThanTrustedState is returned when backward verification is
// disabled and the requested target is below the trusted height.
func ErrTargetLowerThanTrustedState(target, trusted Height) error {
	return errors.Wrap(errTargetLowerThanTrustedState{target, trusted}, "")
}

// IsErrTargetLowerThanTrustedState reports whether err is (or wraps)
// TargetLowerThanTrustedState.
func IsErrTargetLowerThanTrustedState(err error) bool {
	_, ok := errors.Cause(err).(errTargetLowerThanTrustedState)
	return ok
}

type errHeightMismatch struct{ expected, got Height }

func (e errHeightMismatch) Error() string {
	return fmt.Sprintf("expected height %d, got %d", e.expected, e.got)
}

// ErrHeightMismatch is an initialization-time check against an
// operator-provided anchor.
func ErrHeightMismatch(expected, got Height) error {
	return errors.Wrap(errHeightMismatch{expected, got}, "")
}

// IsErrHeightMismatch reports whether err is (or wraps) HeightMismatch.
func IsErrHeightMismatch(err error) bool {
	_, ok := errors.Cause(err).(errHeightMismatch)
	return ok
}

type errHashMismatch struct{ expected, got []byte }

func (e errHashMismatch) Error() string {
	return fmt.Sprintf("expected hash %X, got %X", e.expected, e.got)
}

// ErrHashMismatch is an initialization-time check against an
// operator-provided anchor.
func ErrHashMismatch(expected, got []byte) error {
	return errors.Wrap(errHashMismatch{expected, got}, "")
}

// IsErrHashMismatch reports whether err is (or wraps) HashMismatch.
func IsErrHashMismatch(err error) bool {
	_, ok := errors.Cause(err).(errHashMismatch)
	return ok
}

type errForkDetected struct{ peers []PeerID }

func (e errForkDetected) Error() string {
	return fmt.Sprintf("fork detected, evidence submitted against peers %v", e.peers)
}

// ErrForkDetected is fatal: an attack was detected and evidence submitted.
func ErrForkDetected(peers []PeerID) error { return errors.Wrap(errForkDetected{peers}, "") }

// IsErrForkDetected reports whether err is (or wraps) ForkDetected, and if
// so returns the offending peers.
func IsErrForkDetected(err error) ([]PeerID, bool) {
	e, ok := errors.Cause(err).(errForkDetected)
	if !ok {
		return nil, false
	}
	return e.peers, true
}

type errNoWitnesses struct{}

func (e errNoWitnesses) Error() string {
	return "fork detection requested with an empty witness list"
}

// ErrNoWitnesses is fatal: fork detection was requested but no witnesses
// remain.
func ErrNoWitnesses() error { return errors.Wrap(errNoWitnesses{}, "") }

// IsErrNoWitnesses reports whether err is (or wraps) NoWitnesses.
func IsErrNoWitnesses(err error) bool {
	_, ok := errors.Cause(err).(errNoWitnesses)
	return ok
}
