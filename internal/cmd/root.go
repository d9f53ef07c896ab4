package cmd

import (
	"github.com/spf13/cobra"

	"github.com/3c0d/obsidian-inject/internal/logging"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbosity    int
	quiet        bool
)

// Execute builds the command tree and runs it.
func Execute(version, commit, date string) error {
	SetVersion(version, commit, date)
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var opts InjectOptions

	rootCmd := &cobra.Command{
		Use:   "obsidian-inject [path]",
		Short: "Inject autonomous build configuration into Obsidian plugins",
		Long: `obsidian-inject copies the shared scripts, build configuration, editor
settings and release workflows from obsidian-plugin-config into an Obsidian
plugin, patches its package.json and installs its dependencies. The plugin
becomes self-contained: re-run the injection to pick up template updates.

The template source is located through PLUGIN_CONFIG_PATH (a path, "local"
for the sibling directory, or "prompt"), then a sibling
obsidian-plugin-config checkout, then the installed package.

Examples:
  obsidian-inject                      # Inject into the current directory
  obsidian-inject ../my-plugin         # Inject by path
  obsidian-inject ../my-plugin --sass  # Include the SASS pipeline
  obsidian-inject ../my-plugin --check # Show what would change`,
		Version:      buildInfo.Version,
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Target = targetArg(args)
			return runInject(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	rootCmd.SetVersionTemplate("obsidian-inject version {{.Version}}\n")

	addInjectFlags(rootCmd, &opts)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml, toml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Verbose output (repeat for more detail)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")

	// Add subcommands
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newBumpCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newPublishCmd())
	rootCmd.AddCommand(newExportsCmd())
	rootCmd.AddCommand(newBackupCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml", "toml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd
}
