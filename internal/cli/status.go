package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bjacobin3d/githulu/internal/gitstatus"
)

// newStatusCmd creates the status command
func newStatusCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status [name]",
		Short: "Show the working tree status of a registered repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("name a repository or pass --all")
			}

			svc, err := a.service()
			if err != nil {
				return err
			}

			if !all {
				repo, err := resolveRepo(a, args[0])
				if err != nil {
					return err
				}
				status, err := svc.RefreshStatus(cmd.Context(), repo.ID)
				if err != nil {
					return err
				}
				writeStatus(cmd.OutOrStdout(), repo.Name, status)
				return nil
			}

			repos := a.reg.Repos()
			if len(repos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No repositories registered.")
				return nil
			}
			sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })

			// The scheduler already bounds concurrency; the errgroup just
			// collects the first failure without dropping the rest.
			statuses := make([]*gitstatus.RepoStatus, len(repos))
			group, ctx := errgroup.WithContext(cmd.Context())
			for i, repo := range repos {
				i, repo := i, repo
				group.Go(func() error {
					status, err := svc.RefreshStatus(ctx, repo.ID)
					if err != nil {
						return fmt.Errorf("%s: %w", repo.Name, err)
					}
					statuses[i] = status
					return nil
				})
			}
			err = group.Wait()

			printed := 0
			for i, repo := range repos {
				if statuses[i] == nil {
					continue
				}
				if printed > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				writeStatus(cmd.OutOrStdout(), repo.Name, statuses[i])
				printed++
			}
			return err
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Refresh and show every registered repository.")

	return cmd
}
