package provisioner

import "fmt"

// ResolutionError is returned when a namespace name cannot be evaluated.
type ResolutionError struct {
	UserID string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to evaluate namespace name for user %q: %v", e.UserID, e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// CreationError is returned when the namespace could not be obtained or created.
type CreationError struct {
	Namespace string
	Err       error
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to get or create namespace %s: %v", e.Namespace, e.Err)
}

func (e *CreationError) Unwrap() error {
	return e.Err
}

// NamespaceNotFoundError reports a namespace that was missing right after a
// successful get-or-create. It signals an inconsistency in the resolver.
type NamespaceNotFoundError struct {
	Name string
}

func (e *NamespaceNotFoundError) Error() string {
	return fmt.Sprintf("not able to find namespace %s after creation", e.Name)
}

// ConfigurationError wraps the failure of a single configuration stage.
type ConfigurationError struct {
	Stage     string
	Namespace string
	Err       error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("failed to configure namespace %s (%s): %v", e.Namespace, e.Stage, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
