package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"buddybot/internal/database"
	"buddybot/internal/models"
	"buddybot/internal/service"
)

func init() {
	rootCmd.AddCommand(
		initCmd,
		statsCmd,
		statusCmd,
		unsyncedCmd,
		markSyncedCmd,
		syncLogCmd,
		conflictsCmd,
		resolveConflictCmd,
		errorsCmd,
		resolveErrorCmd,
		cleanCmd,
		exportCmd,
		shareAchievementCmd,
		forgetUserCmd,
	)

	markSyncedCmd.Flags().StringSlice("failed", nil, "ids the cloud rejected")
	markSyncedCmd.Flags().Int64("bytes", 0, "bytes transferred")
	syncLogCmd.Flags().Int("limit", 20, "number of operations to show")
	errorsCmd.Flags().Int("limit", 50, "number of errors to show")
	cleanCmd.Flags().Int("days", 0, "retention window in days (default from config)")
	exportCmd.Flags().String("user", "", "user id to export (default: the device user)")
	exportCmd.Flags().String("output", "", "output file (default: export_<user>_YYYYMMDD_HHMMSS.json)")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the schema if it does not exist",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		deviceID, err := a.settings.DeviceID(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s)\nDevice: %s\n", a.db.GetDialect().Name(), deviceID)
		return nil
	}),
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show row counts per table",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		counts, err := a.maintenanceService().Stats(cmd.Context())
		if err != nil {
			return err
		}
		tables := make([]string, 0, len(counts))
		for t := range counts {
			tables = append(tables, t)
		}
		sort.Strings(tables)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TABLE\tROWS")
		for _, t := range tables {
			fmt.Fprintf(w, "%s\t%d\n", t, counts[t])
		}
		return w.Flush()
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state and the current streak",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		ctx := cmd.Context()
		st, err := a.syncService().Status(ctx)
		if err != nil {
			return err
		}
		streak, err := service.NewStreakService(a.settings, time.Now).CurrentStreak(ctx)
		if err != nil {
			return err
		}

		last := "never"
		if st.LastSync != nil {
			last = st.LastSync.Local().Format(time.RFC1123)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sync enabled:    %v\n", st.Enabled)
		fmt.Fprintf(out, "Last sync:       %s\n", last)
		fmt.Fprintf(out, "Pending records: %d\n", st.Pending)
		fmt.Fprintf(out, "Offline changes: %d\n", st.OfflineChanges)
		fmt.Fprintf(out, "Current streak:  %d\n", streak)
		return nil
	}),
}

var unsyncedCmd = &cobra.Command{
	Use:   "unsynced <table>",
	Short: "Print the pending rows of a table as JSON",
	Long: fmt.Sprintf(`Print the rows of a syncable table that are waiting to be pushed.

Syncable tables: %v`, database.SyncableTables),
	Args: cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		rows, err := a.syncService().Unsynced(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rows)
	}),
}

var markSyncedCmd = &cobra.Command{
	Use:   "mark-synced <table> <id>...",
	Short: "Record a push: mark ids synced and log the operation",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		failed, _ := cmd.Flags().GetStringSlice("failed")
		bytes, _ := cmd.Flags().GetInt64("bytes")

		userID, err := a.settings.UserID(cmd.Context())
		if err != nil {
			return err
		}
		op, err := a.syncService().CompletePush(cmd.Context(), service.PushResult{
			Table:            args[0],
			SyncedIDs:        args[1:],
			FailedIDs:        failed,
			BytesTransferred: bytes,
			StartedAt:        time.Now().UTC(),
			UserID:           userID,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d synced, %d failed (%s)\n",
			op.TableName, op.RecordsSucceeded, op.RecordsFailed, op.Status)
		return nil
	}),
}

var syncLogCmd = &cobra.Command{
	Use:   "sync-log",
	Short: "Show recent sync operations",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		ops, err := a.syncService().RecentOperations(cmd.Context(), limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STARTED\tTYPE\tTABLE\tOK\tFAILED\tSTATUS\tERROR")
		for _, op := range ops {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
				op.StartedAt.Local().Format(time.DateTime), op.OperationType, op.TableName,
				op.RecordsSucceeded, op.RecordsFailed, op.Status, op.ErrorMessage)
		}
		return w.Flush()
	}),
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Print unresolved sync conflicts as JSON",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		open, err := a.syncService().OpenConflicts(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), open)
	}),
}

var resolveConflictCmd = &cobra.Command{
	Use:       "resolve-conflict <id> <local_wins|cloud_wins|merged>",
	Short:     "Resolve a sync conflict",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(models.ResolutionLocalWins), string(models.ResolutionCloudWins), string(models.ResolutionMerged)},
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		c, err := a.syncService().ResolveConflict(cmd.Context(), args[0], models.ConflictResolution(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resolved %s/%s as %s\n", c.TableName, c.RecordID, c.Resolution)
		return nil
	}),
}

var errorsCmd = &cobra.Command{
	Use:   "errors",
	Short: "Show unresolved errors",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		list, err := a.stores.ErrorLog.ListUnresolved(cmd.Context(), limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tTYPE\tCODE\tMESSAGE")
		for _, e := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Timestamp.Local().Format(time.DateTime), e.ErrorType, e.ErrorCode, e.Message)
		}
		return w.Flush()
	}),
}

var resolveErrorCmd = &cobra.Command{
	Use:   "resolve-error <id>",
	Short: "Mark a logged error as resolved",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.stores.ErrorLog.Resolve(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Resolved %s\n", args[0])
		return nil
	}),
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete old sync log entries and resolved errors",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		days, _ := cmd.Flags().GetInt("days")
		res, err := a.maintenanceService().CleanOldRecords(cmd.Context(), days)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sync log entries and %d resolved errors\n",
			res.SyncLogDeleted, res.ErrorLogDeleted)
		return nil
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's data as JSON",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		ctx := cmd.Context()
		userID, _ := cmd.Flags().GetString("user")
		outputPath, _ := cmd.Flags().GetString("output")

		if userID == "" {
			var err error
			if userID, err = a.settings.UserID(ctx); err != nil {
				return err
			}
			if userID == "" {
				return fmt.Errorf("no user on this device; pass --user")
			}
		}
		if outputPath == "" {
			outputPath = fmt.Sprintf("export_%s_%s.json", userID, time.Now().Format("20060102_150405"))
		}
		if dir := filepath.Dir(outputPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		svc := service.NewExportService(a.stores, a.settings, a.logger)
		if err := svc.ExportToFile(ctx, userID, outputPath); err != nil {
			return err
		}
		info, err := os.Stat(outputPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s (%.1f KB)\n", userID, outputPath, float64(info.Size())/1024)
		return nil
	}),
}

var shareAchievementCmd = &cobra.Command{
	Use:   "share-achievement <id>",
	Short: "Email an achievement to the user's guardian",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		storage, err := a.storageService(cmd.Context())
		if err != nil {
			return err
		}
		if err := storage.ShareAchievementWithGuardian(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Shared %s with guardian\n", args[0])
		return nil
	}),
}

var forgetUserCmd = &cobra.Command{
	Use:   "forget-user <user>",
	Short: "Anonymize a profile and clear the user's settings",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		storage, err := a.storageService(cmd.Context())
		if err != nil {
			return err
		}
		if err := storage.ForgetUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", args[0])
		return nil
	}),
}

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
