package cmd

import "github.com/spf13/cobra"

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for obsidian-inject.

To load completions:

Bash:
  $ source <(obsidian-inject completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ obsidian-inject completion bash > /etc/bash_completion.d/obsidian-inject
  # macOS:
  $ obsidian-inject completion bash > $(brew --prefix)/etc/bash_completion.d/obsidian-inject

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ obsidian-inject completion zsh > "${fpath[1]}/_obsidian-inject"

  # You will need to start a new shell for this setup to take effect.

  # Oh My Zsh:
  $ mkdir -p ~/.oh-my-zsh/completions
  $ obsidian-inject completion zsh > ~/.oh-my-zsh/completions/_obsidian-inject

Fish:
  $ obsidian-inject completion fish > ~/.config/fish/completions/obsidian-inject.fish
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			}
			return nil
		},
	}
}
