package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bjacobin3d/githulu/internal/service"
)

// newFetchCmd creates the fetch command
func newFetchCmd(a *app) *cobra.Command {
	return newRemoteCmd(a, "fetch", "Fetch remote refs for a repository", (*service.Service).Fetch)
}

// newPullCmd creates the pull command
func newPullCmd(a *app) *cobra.Command {
	return newRemoteCmd(a, "pull", "Pull remote changes into the current branch", (*service.Service).Pull)
}

// newPushCmd creates the push command
func newPushCmd(a *app) *cobra.Command {
	return newRemoteCmd(a, "push", "Push the current branch to its upstream", (*service.Service).Push)
}

// newRemoteCmd builds one network command. They differ only in the engine
// method they invoke; progress streaming and the follow-up status print
// are shared.
func newRemoteCmd(a *app, verb, short string, run func(*service.Service, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <name>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := resolveRepo(a, args[0])
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}

			events, cancel := svc.Events().Subscribe(service.EventProgress)
			defer cancel()
			done := make(chan struct{})
			go func() {
				defer close(done)
				for ev := range events {
					fmt.Fprintln(cmd.ErrOrStderr(), styleDim(ev.Line))
				}
			}()

			err = run(svc, cmd.Context(), repo.ID)
			cancel()
			<-done
			if err != nil {
				return err
			}

			if status := svc.GetCachedStatus(repo.ID); status != nil {
				writeStatus(cmd.OutOrStdout(), repo.Name, status)
			}
			return nil
		},
	}
}
