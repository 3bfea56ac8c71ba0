package error

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError indicates malformed or incomplete caller input. It never touches the cluster.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError indicates missing or invalid process-level configuration.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Cause)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

func NewConfigurationError(cause error, format string, args ...interface{}) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...), Cause: cause}
}

// ClusterError wraps any cluster API failure which is not one of the expected idempotent races.
type ClusterError struct {
	Operation string
	Cause     error
}

func (e *ClusterError) Error() string {
	return fmt.Sprintf("cluster operation '%s' failed: %s", e.Operation, e.Cause)
}

func (e *ClusterError) Unwrap() error {
	return e.Cause
}

func NewClusterError(cause error, operation string) error {
	return &ClusterError{Operation: operation, Cause: cause}
}

// DeploymentError is returned when the package installer fails. Output carries the
// raw diagnostic output of the installer.
type DeploymentError struct {
	Release   string
	Namespace string
	Output    string
	Cause     error
}

func (e *DeploymentError) Error() string {
	msg := fmt.Sprintf("deployment of release '%s' into namespace '%s' failed", e.Release, e.Namespace)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Cause)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg = fmt.Sprintf("%s (output: %s)", msg, out)
	}
	return msg
}

func (e *DeploymentError) Unwrap() error {
	return e.Cause
}

// NotFoundError indicates that a referenced tenant or catalog does not exist.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.Name)
}

func NewNotFoundError(kind, name string) error {
	return &NotFoundError{Kind: kind, Name: name}
}

// UnauthorizedError indicates a request without tenant identity.
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsConfigurationError(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

func IsClusterError(err error) bool {
	var target *ClusterError
	return errors.As(err, &target)
}

func IsDeploymentError(err error) bool {
	var target *DeploymentError
	return errors.As(err, &target)
}

func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsUnauthorizedError(err error) bool {
	var target *UnauthorizedError
	return errors.As(err, &target)
}
