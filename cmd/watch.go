package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/backend"
	"github.com/kazuma-desu/gset/pkg/cliout"
	"github.com/kazuma-desu/gset/pkg/path"
	"github.com/kazuma-desu/gset/pkg/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch <key>",
	Short: "Watch a key or directory for changes",
	Long: `Watch subscribes to a backend's change notifications for a key or, with
--prefix, every key under a directory, and prints each notification as it
arrives. Press Ctrl+C to stop.`,
	Example: `  # Watch a single key
  gset watch /app/config/host

  # Watch everything under a directory
  gset watch /app/config/ --prefix

  # JSON output for scripting
  gset watch /app/config/ --prefix -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var watchOpts struct {
	prefix bool
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchOpts.prefix, "prefix", false,
		"watch every key under the given directory")
}

// watchEvent is what gets printed for each notification; kind is one of
// "changed", "keys_changed", or "path_changed".
type watchEvent struct {
	Kind string   `json:"kind"`
	Key  string   `json:"key,omitempty"`
	Dir  string   `json:"dir,omitempty"`
	Keys []string `json:"keys,omitempty"`
}

// watchTarget is the object registered with the watch registry. It carries
// no state; it exists only so backend.Watch has something to hold a weak
// reference to for the lifetime of this command.
type watchTarget struct{}

func runWatch(_ *cobra.Command, args []string) error {
	key := args[0]
	if watchOpts.prefix {
		if !path.IsDir(key) {
			return fmt.Errorf("malformed directory: %s", key)
		}
	} else if !path.IsKey(key) {
		return fmt.Errorf("malformed key: %s", key)
	}

	b, cleanup, err := resolveBackend()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	events := make(chan watchEvent, 64)
	target := &watchTarget{}
	backend.Watch(b, target, watch.Callbacks{
		OnChanged: func(_ any, changedKey string, _ watch.OriginTag) {
			if matchesWatch(changedKey, key) {
				events <- watchEvent{Kind: "changed", Key: changedKey}
			}
		},
		OnKeysChanged: func(_ any, dir string, keys []string, _ watch.OriginTag) {
			for _, k := range keys {
				if matchesWatch(dir+k, key) {
					events <- watchEvent{Kind: "keys_changed", Dir: dir, Keys: keys}
					return
				}
			}
		},
		OnPathChanged: func(_ any, dir string, _ watch.OriginTag) {
			if matchesWatch(dir, key) {
				events <- watchEvent{Kind: "path_changed", Dir: dir}
			}
		},
	}, nil)
	defer backend.Unwatch(b, target)

	if !isQuietOutput() {
		if watchOpts.prefix {
			cliout.Info(fmt.Sprintf("Watching keys under: %s", key))
		} else {
			cliout.Info(fmt.Sprintf("Watching key: %s", key))
		}
		fmt.Println("Press Ctrl+C to stop")
	}

	for {
		select {
		case ev := <-events:
			if err := printWatchEvent(ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func matchesWatch(fired, watched string) bool {
	if watchOpts.prefix {
		return len(fired) >= len(watched) && fired[:len(watched)] == watched
	}
	return fired == watched
}

func printWatchEvent(ev watchEvent) error {
	if outputFormat == cliout.FormatJSON.String() {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}
	switch ev.Kind {
	case "changed":
		fmt.Println(ev.Key)
	case "keys_changed":
		fmt.Printf("%s: %v\n", ev.Dir, ev.Keys)
	case "path_changed":
		fmt.Println(ev.Dir)
	}
	return nil
}
