package cmd

import "fmt"

// wrapNotConnectedError returns a standardized error for when a backend
// fails to dial due to missing or invalid connection configuration.
func wrapNotConnectedError(err error) error {
	return fmt.Errorf("not connected: %w\n\nUse 'gset connect' to configure a connection", err)
}
