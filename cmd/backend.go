package cmd

import (
	"fmt"
	"time"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/backend/etcdbackend"
	"github.com/kazuma-desu/gset/pkg/backend/fileconfig"
	"github.com/kazuma-desu/gset/pkg/backend/memory"
	"github.com/kazuma-desu/gset/pkg/gconfig"
	"github.com/kazuma-desu/gset/pkg/logger"
)

// resolveBackend dials the concrete backend named by --connection, or by
// the gconfig current connection if that flag is empty.
//
// This deliberately does not go through pkg/defaultbackend's priority scan:
// the CLI links pkg/backend/etcdbackend, pkg/backend/fileconfig, and
// pkg/backend/memory together, so all three self-register, and etcd's
// priority-20 registration would always be tried first and fail whenever
// GSET_ETCD_ENDPOINTS isn't set, even when the user only ever wanted the
// memory fallback. A CLI invocation already knows which connection it wants
// (gconfig's current connection, or none), so it dials that backend
// directly. pkg/defaultbackend stays the right entry point for library
// consumers that have no such explicit connection concept.
func resolveBackend() (backend.Backend, func(), error) {
	conn, name, err := currentConnection()
	if err != nil {
		return nil, nil, err
	}

	if conn == nil {
		logger.Log.Infow("no connection configured, falling back to in-memory storage; nothing will persist")
		return memory.New(), func() {}, nil
	}

	b, err := dial(conn)
	if err != nil {
		return nil, nil, wrapNotConnectedError(fmt.Errorf("connection %q: %w", name, err))
	}

	cleanup := func() {
		if closer, ok := b.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				logVerbose("failed to close backend cleanly", "error", cerr)
			}
		}
	}
	return b, cleanup, nil
}

// currentConnection resolves the connection --connection names, falling
// back to gconfig's current connection when that flag is empty.
func currentConnection() (*gconfig.Connection, string, error) {
	if connectionName == "" {
		return gconfig.CurrentConnection()
	}

	cfg, err := gconfig.LoadConfig()
	if err != nil {
		return nil, "", err
	}
	conn, ok := cfg.Connections[connectionName]
	if !ok {
		return nil, "", fmt.Errorf("connection %q not found", connectionName)
	}
	return conn, connectionName, nil
}

func dial(conn *gconfig.Connection) (backend.Backend, error) {
	switch conn.Backend {
	case etcdbackend.Name:
		if len(conn.Endpoints) == 0 {
			return nil, fmt.Errorf("connection uses the etcd backend but has no endpoints configured")
		}
		return etcdbackend.Dial(etcdbackend.Config{
			Endpoints:   conn.Endpoints,
			Username:    conn.Username,
			Password:    conn.Password,
			DialTimeout: 5 * time.Second,
		})
	case fileconfig.Name:
		path := conn.Path
		if path == "" {
			var err error
			path, err = fileconfig.DefaultPath()
			if err != nil {
				return nil, err
			}
		}
		return fileconfig.Open(path)
	case memory.Name:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", conn.Backend)
	}
}
