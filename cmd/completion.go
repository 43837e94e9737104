package cmd

import (
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kazuma-desu/gset/pkg/gconfig"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for gset.

To load completions:

Bash:
  # Linux:
  $ gset completion bash > /etc/bash_completion.d/gset

  # macOS (with Homebrew):
  $ gset completion bash > $(brew --prefix)/etc/bash_completion.d/gset

Zsh:
  # If shell completion is not already enabled, enable it by adding:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # Then load the gset completions:
  $ gset completion zsh > "${fpath[1]}/_gset"

Fish:
  $ gset completion fish > ~/.config/fish/completions/gset.fish

PowerShell:
  PS> gset completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE:                  runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)

	if err := rootCmd.RegisterFlagCompletionFunc("connection", completeConnectionNames); err != nil {
		_ = err
	}
}

func runCompletion(cmd *cobra.Command, args []string) error {
	switch args[0] {
	case "bash":
		return cmd.Root().GenBashCompletion(os.Stdout)
	case "zsh":
		return cmd.Root().GenZshCompletion(os.Stdout)
	case "fish":
		return cmd.Root().GenFishCompletion(os.Stdout, true)
	case "powershell":
		return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
	}
	return nil
}

func completeConnectionNames(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	cfg, err := gconfig.LoadConfig()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	names := make([]string, 0, len(cfg.Connections))
	for name := range cfg.Connections {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, cobra.ShellCompDirectiveNoFileComp
}
