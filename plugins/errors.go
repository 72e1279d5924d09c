package plugins

import (
	"errors"
	"fmt"
)

var (
	// ErrPluginNotFound indicates that an enabled plugin is not known to the loader
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrPluginAlreadyExists indicates an attempt to add a plugin with an ID that is already in use
	ErrPluginAlreadyExists = errors.New("plugin already exists")

	// ErrInvalidPluginID indicates that the plugin ID is empty
	ErrInvalidPluginID = errors.New("invalid plugin ID")

	// ErrNoPlugins indicates that plugins were requested but none are known
	ErrNoPlugins = errors.New("no plugins registered in loader")
)

// PluginError carries the plugin and the operation that failed.
type PluginError struct {
	PluginID  string
	Operation string
	Err       error
}

// Error implements the error interface.
func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %s failed: %v", e.PluginID, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// NewPluginError creates a PluginError.
func NewPluginError(id, operation string, err error) *PluginError {
	return &PluginError{PluginID: id, Operation: operation, Err: err}
}
