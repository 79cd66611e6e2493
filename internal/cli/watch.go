package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bjacobin3d/githulu/internal/service"
)

// newWatchCmd creates the watch command
func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [name...]",
		Short: "Watch repositories and print status updates as files change",
		Long: `Watch repositories and print status updates as files change.

With no arguments every registered repository is watched. Runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}

			names := make(map[string]string)
			if len(args) == 0 {
				for _, repo := range a.reg.Repos() {
					if err := svc.Watch(repo.ID); err != nil {
						return fmt.Errorf("watching %s: %w", repo.Name, err)
					}
					names[repo.ID] = repo.Name
				}
			} else {
				for _, arg := range args {
					repo, err := resolveRepo(a, arg)
					if err != nil {
						return err
					}
					if err := svc.Watch(repo.ID); err != nil {
						return fmt.Errorf("watching %s: %w", repo.Name, err)
					}
					names[repo.ID] = repo.Name
				}
			}
			if len(names) == 0 {
				return fmt.Errorf("no repositories to watch")
			}

			events, cancel := svc.Events().Subscribe(
				service.EventStatusUpdated,
				service.EventRebaseChanged,
				service.EventOperationError,
			)
			defer cancel()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(stop)

			fmt.Fprintf(cmd.ErrOrStderr(), "Watching %d repositories. Ctrl-C to stop.\n", len(names))
			for {
				select {
				case <-stop:
					return nil
				case <-cmd.Context().Done():
					return nil
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					printWatchEvent(cmd, names[ev.RepoID], ev)
				}
			}
		},
	}
}

func printWatchEvent(cmd *cobra.Command, name string, ev service.Event) {
	if name == "" {
		name = ev.RepoID
	}
	stamp := styleDim(ev.At.Format("15:04:05"))

	switch ev.Kind {
	case service.EventStatusUpdated:
		fmt.Fprintln(cmd.OutOrStdout(), stamp)
		writeStatus(cmd.OutOrStdout(), name, ev.Status)
	case service.EventRebaseChanged:
		state := "rebase finished"
		if ev.Rebase != nil && ev.Rebase.InProgress {
			state = fmt.Sprintf("rebase started (step %d/%d)", ev.Rebase.Step, ev.Rebase.Total)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", stamp, name, styleConflict(state))
	case service.EventOperationError:
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", stamp, name, ev.Err)
	}
}
