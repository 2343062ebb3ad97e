package hal

import (
	"errors"
	"fmt"
)

// Sentinel errors for representation building.
var (
	ErrInvalidConfig = errors.New("hal: invalid configuration")
	ErrUnknownRel    = errors.New("hal: unknown rel")
	ErrMissingPath   = errors.New("hal: embedded resource has no path")
	ErrHookFailed    = errors.New("hal: representation hook failed")
	ErrRouteNotFound = errors.New("hal: route not found")
)

// ConfigurationError reports a malformed link, embedded, namespace or rel
// descriptor. It is raised before anything is applied to a representation.
type ConfigurationError struct {
	Subject string // what was being configured, e.g. `link "mco:boss"`
	Reason  string
}

func (e *ConfigurationError) Error() string {
	if e.Subject == "" {
		return "hal: invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("hal: invalid configuration for %s: %s", e.Subject, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(subject, format string, args ...any) error {
	return &ConfigurationError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}

// UnknownRelError is returned by strict rel lookups when the namespace exists
// but does not define the rel. It usually means a typo in a link declaration.
type UnknownRelError struct {
	Namespace string
	Rel       string
}

func (e *UnknownRelError) Error() string {
	return fmt.Sprintf("hal: unknown rel %q in namespace %q", e.Rel, e.Namespace)
}

func (e *UnknownRelError) Unwrap() error {
	return ErrUnknownRel
}

// MissingPathError is returned when an embedded declaration has no path into
// the entity. It is also a configuration error.
type MissingPathError struct {
	Rel string
}

func (e *MissingPathError) Error() string {
	return fmt.Sprintf("hal: embedded rel %q has no path", e.Rel)
}

func (e *MissingPathError) Unwrap() []error {
	return []error{ErrMissingPath, ErrInvalidConfig}
}

// HookError wraps a failure reported (or a panic raised) by an entity's
// ToHal hook or a route's prepare callback.
type HookError struct {
	Hook string // "entity" or "prepare"
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hal: %s hook: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() []error {
	return []error{ErrHookFailed, e.Err}
}

// IsConfigurationError checks if err is a configuration error, including a
// missing embedded path.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

// IsUnknownRel checks if err is a strict-mode rel lookup miss.
func IsUnknownRel(err error) bool {
	return errors.Is(err, ErrUnknownRel)
}

// IsMissingPath checks if err reports an embedded declaration without a path.
func IsMissingPath(err error) bool {
	return errors.Is(err, ErrMissingPath)
}

// IsHookError checks if err came from an entity hook or prepare callback.
func IsHookError(err error) bool {
	return errors.Is(err, ErrHookFailed)
}

// IsNotFound checks if err is a route lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRouteNotFound)
}
