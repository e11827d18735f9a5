package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/studyplan/internal/syncer"
)

func newSyncCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "sync",
		Short: "Manage remote progress sync",
	}

	op := func(use, short string, args cobra.PositionalArgs, fn func(cmd *cobra.Command, rec *syncer.Reconciler, args []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, a []string) error {
				return withUser(cmd, func(rt *runtime) error {
					ws, err := rt.tracker.Active()
					if err != nil {
						return err
					}
					if err := fn(cmd, ws.Sync, a); err != nil {
						return err
					}
					printSyncStatus(cmd.OutOrStdout(), ws.Sync, rt.tracker.Now())
					return nil
				})
			},
		}
	}

	c.AddCommand(
		op("status", "Show sync status", cobra.NoArgs,
			func(*cobra.Command, *syncer.Reconciler, []string) error { return nil }),
		op("now", "Push local progress to the remote", cobra.NoArgs,
			func(cmd *cobra.Command, rec *syncer.Reconciler, _ []string) error {
				if !rec.Push(cmd.Context()) {
					return syncFailed(rec, "push")
				}
				return nil
			}),
		op("pull", "Adopt the remote copy when it has more completed topics", cobra.NoArgs,
			func(cmd *cobra.Command, rec *syncer.Reconciler, _ []string) error {
				if !rec.Configured() {
					return syncFailed(rec, "pull")
				}
				if rec.Reconcile(cmd.Context()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Adopted remote progress.")
					return nil
				}
				if rec.Status() == syncer.StatusError {
					return syncFailed(rec, "pull")
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Local progress is up to date.")
				return nil
			}),
		op("create", "Create a new remote document for this learner", cobra.NoArgs,
			func(cmd *cobra.Command, rec *syncer.Reconciler, _ []string) error {
				h, err := rec.CreateRemote(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created remote %s\n", h)
				return nil
			}),
		op("connect <handle>", "Connect to an existing remote document", cobra.ExactArgs(1),
			func(cmd *cobra.Command, rec *syncer.Reconciler, args []string) error {
				return rec.Connect(cmd.Context(), args[0])
			}),
		op("disconnect", "Forget the remote document", cobra.NoArgs,
			func(cmd *cobra.Command, rec *syncer.Reconciler, _ []string) error {
				return rec.Disconnect(cmd.Context())
			}),
		op("auto <on|off>", "Turn automatic push on or off", cobra.ExactArgs(1),
			func(cmd *cobra.Command, rec *syncer.Reconciler, args []string) error {
				switch args[0] {
				case "on":
					return rec.SetAutoSync(cmd.Context(), true)
				case "off":
					return rec.SetAutoSync(cmd.Context(), false)
				default:
					return fmt.Errorf("auto: want on or off, got %q", args[0])
				}
			}),
	)
	return c
}

func syncFailed(rec *syncer.Reconciler, op string) error {
	if !rec.HasBackend() {
		return fmt.Errorf("%s failed: no sync backend configured", op)
	}
	if !rec.Configured() {
		return fmt.Errorf("%s failed: no remote connected", op)
	}
	if err := rec.LastError(); err != nil {
		return fmt.Errorf("%s failed: %w", op, err)
	}
	return fmt.Errorf("%s failed", op)
}

func printSyncStatus(out io.Writer, rec *syncer.Reconciler, now time.Time) {
	cfg := rec.Config()
	fmt.Fprintf(out, "Status:    %s\n", rec.Status())
	if cfg.RemoteHandle != "" {
		fmt.Fprintf(out, "Remote:    %s\n", cfg.RemoteHandle)
	} else {
		fmt.Fprintln(out, "Remote:    (none)")
	}
	if cfg.LastSync != nil {
		fmt.Fprintf(out, "Last sync: %s (%s ago)\n",
			cfg.LastSync.Local().Format("2006-01-02 15:04:05"),
			now.Sub(*cfg.LastSync).Round(time.Second))
	} else {
		fmt.Fprintln(out, "Last sync: never")
	}
	auto := "off"
	if cfg.AutoSync {
		auto = "on"
	}
	fmt.Fprintf(out, "Auto-sync: %s\n", auto)
	if err := rec.LastError(); err != nil {
		fmt.Fprintf(out, "Error:     %v\n", err)
	}
}
