package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/backend/etcdbackend"
	"github.com/kazuma-desu/gset/pkg/backend/fileconfig"
	"github.com/kazuma-desu/gset/pkg/backend/memory"
	"github.com/kazuma-desu/gset/pkg/cliout"
	"github.com/kazuma-desu/gset/pkg/gconfig"
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Configure a named backend connection",
	Long: `Interactive wizard to configure a new backend connection.

Configuration is saved to ~/.config/gset/config.yaml.

For automation, use flags:
  gset connect --name prod --backend etcd --endpoints http://etcd:2379`,
	Example: `  gset connect
  gset connect --name prod --backend etcd --endpoints http://etcd:2379
  gset connect --name local --backend file --path ./settings.yaml
  gset connect --name scratch --backend memory`,
	Args: cobra.NoArgs,
	RunE: runConnect,
}

var (
	connectName      string
	connectBackend   string
	connectEndpoints []string
	connectUsername  string
	connectPassword  string
	connectPath      string
	connectNoTest    bool
)

type connectForm struct {
	Name      string
	Backend   string
	Endpoints string
	Username  string
	Password  string
	Path      string
}

func init() {
	rootCmd.AddCommand(connectCmd)
	connectCmd.Flags().StringVar(&connectName, "name", "", "connection name")
	connectCmd.Flags().StringVar(&connectBackend, "backend", "", "backend kind (memory, file, etcd)")
	connectCmd.Flags().StringSliceVar(&connectEndpoints, "endpoints", nil, "etcd endpoints (comma-separated)")
	connectCmd.Flags().StringVar(&connectUsername, "username", "", "etcd username")
	connectCmd.Flags().StringVar(&connectPassword, "password", "", "etcd password")
	connectCmd.Flags().StringVar(&connectPath, "path", "", "file backend document path")
	connectCmd.Flags().BoolVar(&connectNoTest, "no-test", false, "skip testing the connection")
}

func runConnect(_ *cobra.Command, _ []string) error {
	if hasConnectFlags() {
		return runConnectAutomated()
	}
	return runConnectInteractive()
}

func hasConnectFlags() bool {
	return connectName != "" || connectBackend != "" || len(connectEndpoints) > 0 ||
		connectUsername != "" || connectPassword != "" || connectPath != ""
}

func runConnectInteractive() error {
	form := &connectForm{}
	accessible := os.Getenv("ACCESSIBLE") != ""

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Connection name").
				Description("A unique name to identify this backend").
				Placeholder("dev | staging | local-file").
				Validate(validateConnectionName).
				Value(&form.Name),

			huh.NewSelect[string]().
				Title("Backend kind").
				Options(
					huh.NewOption("memory (ephemeral, nothing persists)", memory.Name),
					huh.NewOption("file (a YAML document on disk)", fileconfig.Name),
					huh.NewOption("etcd (a networked cluster)", etcdbackend.Name),
				).
				Value(&form.Backend),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Document path").
				Description("where the YAML document lives").
				Placeholder("~/.local/share/gset/store.yaml").
				Value(&form.Path),
		).WithHideFunc(func() bool { return form.Backend != fileconfig.Name }),
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoints").
				Description("etcd server addresses (comma-separated)").
				Placeholder("http://localhost:2379").
				Validate(validateEndpointsField).
				Value(&form.Endpoints),

			huh.NewInput().
				Title("Username").
				Description("leave blank if the cluster has no auth").
				Value(&form.Username),

			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&form.Password),
		).WithHideFunc(func() bool { return form.Backend != etcdbackend.Name }),
	).
		WithTheme(huh.ThemeCharm()).
		WithAccessible(accessible).
		Run()

	if err != nil {
		if err == huh.ErrUserAborted {
			return nil
		}
		return err
	}

	conn := &gconfig.Connection{Backend: form.Backend}
	switch form.Backend {
	case etcdbackend.Name:
		conn.Endpoints = parseEndpointList(form.Endpoints)
		conn.Username = strings.TrimSpace(form.Username)
		conn.Password = form.Password
	case fileconfig.Name:
		conn.Path = strings.TrimSpace(form.Path)
	}

	testPassed := true
	if !connectNoTest {
		cliout.Info("Testing connection...")
		testPassed = testDial(conn)
	}

	if !testPassed {
		fmt.Print("Connection failed. Save anyway? [y/N]: ")
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := gconfig.SetConnection(form.Name, conn, true); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}

	configPath, _ := gconfig.GetConfigPath()
	if testPassed {
		cliout.Success("Connection verified")
	}
	cliout.Success(fmt.Sprintf("Saved to %s", configPath))
	cliout.Success(fmt.Sprintf("Connection %q is now active", form.Name))
	return nil
}

func runConnectAutomated() error {
	name := strings.TrimSpace(connectName)
	if name == "" {
		return fmt.Errorf("--name is required")
	}
	if err := validateConnectionNameFormat(name); err != nil {
		return fmt.Errorf("invalid connection name: %w", err)
	}

	kind := strings.TrimSpace(connectBackend)
	if kind == "" {
		return fmt.Errorf("--backend is required (memory, file, or etcd)")
	}

	conn := &gconfig.Connection{Backend: kind}
	switch kind {
	case etcdbackend.Name:
		if len(connectEndpoints) == 0 {
			return fmt.Errorf("--endpoints is required for the etcd backend")
		}
		conn.Endpoints = connectEndpoints
		conn.Username = connectUsername
		conn.Password = connectPassword
	case fileconfig.Name:
		conn.Path = connectPath
	case memory.Name:
		// nothing to configure
	default:
		return fmt.Errorf("unknown backend kind %q (use memory, file, or etcd)", kind)
	}

	if !connectNoTest {
		cliout.Info("Testing connection...")
		if !testDial(conn) {
			return fmt.Errorf("connection failed - use --no-test to skip")
		}
	}

	if err := gconfig.SetConnection(name, conn, true); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}

	configPath, _ := gconfig.GetConfigPath()
	cliout.Success(fmt.Sprintf("Saved to %s", configPath))
	cliout.Success(fmt.Sprintf("Connection %q is now active", name))
	return nil
}

func testDial(conn *gconfig.Connection) bool {
	b, err := dial(conn)
	if err != nil {
		return false
	}
	if closer, ok := b.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	return true
}

func validateConnectionNameFormat(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("enter a connection name")
	}
	if len(s) < 2 {
		return fmt.Errorf("at least 2 characters")
	}
	if len(s) > 63 {
		return fmt.Errorf("max 63 characters")
	}
	if strings.Contains(s, " ") {
		return fmt.Errorf("spaces not allowed, use dashes")
	}
	for _, r := range s {
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '-' || r == '_'
		if !isLower && !isUpper && !isDigit && !isSpecial {
			return fmt.Errorf("invalid character %q — use letters, numbers, dash, underscore", r)
		}
	}
	return nil
}

func validateConnectionName(s string) error {
	if err := validateConnectionNameFormat(s); err != nil {
		return err
	}
	cfg, err := gconfig.LoadConfig()
	if err == nil && cfg.Connections[strings.TrimSpace(s)] != nil {
		return fmt.Errorf("connection %q already exists", strings.TrimSpace(s))
	}
	return nil
}

func validateEndpointsField(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("enter at least one endpoint")
	}
	if len(parseEndpointList(s)) == 0 {
		return fmt.Errorf("enter at least one endpoint")
	}
	return nil
}

func parseEndpointList(s string) []string {
	var endpoints []string
	for _, p := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			endpoints = append(endpoints, trimmed)
		}
	}
	return endpoints
}
