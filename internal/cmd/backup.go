package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/3c0d/obsidian-inject/internal/backup"
	"github.com/3c0d/obsidian-inject/internal/interactive"
	"github.com/3c0d/obsidian-inject/internal/output"
	"github.com/3c0d/obsidian-inject/internal/style"
)

func newBackupCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "List and restore the backups taken before injection",
		Long: `Backup manages the snapshots taken before an injection modifies a plugin.

Backups are stored in the plugin's ` + backup.DirName + `/ directory and hold
copies of package.json, tsconfig.json, the ignore and env files, editor
settings and any existing scripts.

Use 'obsidian-inject backup restore latest' to undo the last injection.`,
	}
	cmd.PersistentFlags().StringVarP(&target, "path", "p", ".", "Plugin directory")

	cmd.AddCommand(newBackupListCmd(&target))
	cmd.AddCommand(newBackupRestoreCmd(&target))
	cmd.AddCommand(newBackupDeleteCmd(&target))
	cmd.AddCommand(newBackupPruneCmd(&target))

	return cmd
}

func newBackupListCmd(target *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupList(cmd.OutOrStdout(), *target)
		},
	}
}

func newBackupRestoreCmd(target *string) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore files from a backup",
		Long: `Restore copies the files of a backup back into the plugin.

Use 'latest' as the ID to restore the most recent backup.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupRestore(cmd.InOrStdin(), cmd.OutOrStdout(), *target, args[0], yes)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

func newBackupDeleteCmd(target *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupDelete(cmd.OutOrStdout(), *target, args[0])
		},
	}
}

func newBackupPruneCmd(target *string) *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove old backups",
		Long:  `Prune deletes old backups, keeping only the most recent N backups.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupPrune(cmd.OutOrStdout(), *target, keep)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", backup.DefaultKeepCount, "Number of backups to keep")
	return cmd
}

func backupManager(target string) (*backup.Manager, error) {
	abs, err := absTarget(target)
	if err != nil {
		return nil, err
	}
	return backup.NewManager(afero.NewOsFs(), abs, buildInfo.Version), nil
}

func runBackupList(stdout io.Writer, target string) error {
	manager, err := backupManager(target)
	if err != nil {
		return err
	}
	out, err := newOutput(stdout)
	if err != nil {
		return err
	}
	return listBackups(manager, out, stdout)
}

func listBackups(manager *backup.Manager, out *output.Writer, stdout io.Writer) error {
	backups, err := manager.List()
	if err != nil {
		return err
	}

	if !out.IsText() {
		return out.Write(backups)
	}

	if len(backups) == 0 {
		_, _ = fmt.Fprintln(stdout, "No backups found.")
		_, _ = fmt.Fprintf(stdout, "Backup directory: %s\n", manager.BackupDir())
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "Backups stored in %s:\n\n", manager.BackupDir())

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCreated\tInjector\tFiles\tNote")
	for _, b := range backups {
		note := b.Note
		if note == "" {
			note = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			b.ID,
			b.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			versionOrUnknown(b.InjectorVersion),
			len(b.Files),
			note,
		)
	}
	return w.Flush()
}

func runBackupRestore(stdin io.Reader, stdout io.Writer, target, id string, yes bool) error {
	manager, err := backupManager(target)
	if err != nil {
		return err
	}
	out, err := newOutput(stdout)
	if err != nil {
		return err
	}
	printer := newPrinter(stdout, out)
	return restoreBackup(manager, interactive.NewPrompterWithIO(stdin, stdout), printer, id, yes)
}

func restoreBackup(manager *backup.Manager, prompter *interactive.Prompter, printer *style.Printer, id string, yes bool) error {
	bak, err := manager.Get(id)
	if err != nil {
		return err
	}

	printer.Header("Restoring from backup: %s", bak.ID)
	printer.Plain("Created: %s", bak.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if bak.Note != "" {
		printer.Plain("Note: %s", bak.Note)
	}
	for _, f := range bak.Files {
		printer.Plain("  ~ %s", f)
	}

	if !yes && !prompter.Confirm("Proceed?", false) {
		printer.Warn("Restore cancelled.")
		return nil
	}

	if _, err := manager.Restore(bak.ID); err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	printer.Success("Restored %d file(s)", len(bak.Files))
	return nil
}

func runBackupDelete(stdout io.Writer, target, id string) error {
	manager, err := backupManager(target)
	if err != nil {
		return err
	}
	if err := manager.Delete(id); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(stdout, "Backup deleted: %s\n", id)
	return nil
}

func runBackupPrune(stdout io.Writer, target string, keep int) error {
	manager, err := backupManager(target)
	if err != nil {
		return err
	}

	result, err := manager.Prune(keep)
	if err != nil {
		return err
	}

	out, err := newOutput(stdout)
	if err != nil {
		return err
	}
	if !out.IsText() {
		return out.Write(result)
	}

	if len(result.Deleted) == 0 {
		_, _ = fmt.Fprintf(stdout, "No backups to prune. Keeping %d backups.\n", result.Kept)
		return nil
	}

	_, _ = fmt.Fprintf(stdout, "Pruned %d backup(s), keeping %d:\n", len(result.Deleted), result.Kept)
	for _, b := range result.Deleted {
		_, _ = fmt.Fprintf(stdout, "  - %s (%s)\n", b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}
