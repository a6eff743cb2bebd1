// Package errdefs defines the failure classes shared by every pipeline step.
//
// DESIGN: Each class is a sentinel error wrapped with %w, so callers can
// branch with errors.Is regardless of which concrete step produced the
// failure. The pipeline engine adds only failing-step attribution on top.
package errdefs

import (
	"errors"
	"fmt"
)

// Sentinel classes. Wrap with the *f constructors; test with the Is* helpers.
var (
	// ErrConfiguration marks invalid pipeline structure or invalid step
	// construction parameters. Detected eagerly, never mid-run.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrAuthentication marks a missing or rejected credential.
	ErrAuthentication = errors.New("authentication failed")

	// ErrDependency marks an unavailable backing service or library.
	ErrDependency = errors.New("dependency unavailable")

	// ErrValidation marks caller-supplied arguments that violate a step's
	// preconditions.
	ErrValidation = errors.New("invalid argument")

	// ErrNotFound marks a lookup of a named step that does not exist.
	ErrNotFound = errors.New("not found")
)

func wrapf(class error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", class, fmt.Sprintf(format, args...))
}

// Configurationf builds an ErrConfiguration with context.
func Configurationf(format string, args ...any) error {
	return wrapf(ErrConfiguration, format, args...)
}

// Authenticationf builds an ErrAuthentication with context.
func Authenticationf(format string, args ...any) error {
	return wrapf(ErrAuthentication, format, args...)
}

// Dependencyf builds an ErrDependency with context.
func Dependencyf(format string, args ...any) error {
	return wrapf(ErrDependency, format, args...)
}

// Validationf builds an ErrValidation with context.
func Validationf(format string, args ...any) error {
	return wrapf(ErrValidation, format, args...)
}

// NotFoundf builds an ErrNotFound with context.
func NotFoundf(format string, args ...any) error {
	return wrapf(ErrNotFound, format, args...)
}

// IsConfiguration reports whether err is an ErrConfiguration.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsAuthentication reports whether err is an ErrAuthentication.
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }

// IsDependency reports whether err is an ErrDependency.
func IsDependency(err error) bool { return errors.Is(err, ErrDependency) }

// IsValidation reports whether err is an ErrValidation.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
