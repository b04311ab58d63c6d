/*
Copyright © 2025 Jayson Grace <jayson.e.grace@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/

package builder

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition marks failures detected before any build runs.
	ErrPrecondition = errors.New("precondition failed")

	// ErrVersionMismatch marks a release tag that disagrees with the package version.
	ErrVersionMismatch = errors.New("git tag does not match package version")
)

// PreconditionError reports a condition that makes the whole run invalid:
// no workspace, an invalid target name, or an unsafe push.
type PreconditionError struct {
	Reason string
	Err    error
}

// NewPreconditionError returns a PreconditionError with a formatted reason.
func NewPreconditionError(format string, args ...any) *PreconditionError {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// Is matches ErrPrecondition.
func (e *PreconditionError) Is(target error) bool { return target == ErrPrecondition }

// VersionMismatchError reports a release tag whose version differs from the
// package version. It points at a broken tagging process, so it is never retried.
type VersionMismatchError struct {
	Tag     string
	Version string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("git tag %q does not match package version %q", e.Tag, e.Version)
}

// Is matches ErrVersionMismatch.
func (e *VersionMismatchError) Is(target error) bool { return target == ErrVersionMismatch }

// InvocationError is a failed engine invocation for one target.
type InvocationError struct {
	Target string
	Err    error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("build for %s failed: %v", e.Target, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// AggregateBuildError collects every failed target of a completed run.
type AggregateBuildError struct {
	Failures []Outcome
}

func (e *AggregateBuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "encountered error(s) building %d target(s)", len(e.Failures))
	for _, f := range e.Failures {
		cause := f.Err
		var ie *InvocationError
		if errors.As(cause, &ie) {
			cause = ie.Err
		}
		fmt.Fprintf(&b, "\n  %s: %v", f.Target, cause)
	}
	return b.String()
}

// Unwrap exposes the per-target errors to errors.Is and errors.As.
func (e *AggregateBuildError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f.Err)
	}
	return errs
}
