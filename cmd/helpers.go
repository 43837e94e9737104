package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/cliout"
	"github.com/kazuma-desu/gset/pkg/value"
)

// getOperationContext returns a context bounded by --timeout that also
// cancels on SIGINT/SIGTERM, and a cancel func that stops the signal
// handler. Every command that talks to a backend should run through this.
func getOperationContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), operationTimeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			signal.Stop(sigChan)
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// wrapContextError turns a context cancellation or deadline into a message
// that names the flag the user can adjust.
func wrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("operation timed out after %v: consider increasing --timeout", operationTimeout)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("operation canceled")
	}
	return err
}

// isQuietOutput reports whether the active output format is machine-
// readable, in which case incidental progress messages should be suppressed.
func isQuietOutput() bool {
	return outputFormat == cliout.FormatJSON.String()
}

func logVerbose(msg string, keyvals ...any) {
	if isQuietOutput() {
		return
	}
	if len(keyvals) > 0 {
		msg = fmt.Sprintf("%s %v", msg, keyvals)
	}
	cliout.Info(msg)
}

func logVerboseInfo(msg string) {
	if !isQuietOutput() {
		cliout.Info(msg)
	}
}

// backendReadValue reads key directly from b with no pending overlay and no
// type check; every CLI read is a one-shot, so there is never an in-flight
// changeset to layer in front of it.
func backendReadValue(ctx context.Context, b backend.Backend, key string) (value.Value, bool, error) {
	return backend.ReadValue(ctx, b, nil, key, nil)
}

// backendWrite and backendReset write through the CLI without an origin
// tag: the CLI has no richer identity to attach to a mutation than "a user
// ran this command," which isn't worth threading through as a tag.
func backendWrite(ctx context.Context, b backend.Backend, key string, v value.Value) error {
	return backend.Write(ctx, b, key, v, nil)
}

func backendReset(ctx context.Context, b backend.Backend, key string) error {
	return backend.Reset(ctx, b, key, nil)
}

// listKeys returns whatever the backend's optional cliout.Lister extension
// reports under dir (suffixes relative to dir), or reports that the backend
// doesn't support it. The shape depends on the backend: memory and etcd
// return every descendant key's suffix, fileconfig only the immediate
// children.
func listKeys(b backend.Backend, dir string) ([]string, error) {
	lister, ok := b.(cliout.Lister)
	if !ok {
		return nil, fmt.Errorf("backend %q does not support listing", b.Name())
	}
	return lister.ListKeys(dir)
}
