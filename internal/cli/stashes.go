package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newStashesCmd creates the stashes command
func newStashesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stashes <name>",
		Short: "List the stash entries of a registered repository",
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

			stashes, err := svc.ListStashes(cmd.Context(), repo.ID)
			if err != nil {
				return err
			}
			if len(stashes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stashes.")
				return nil
			}
			writeStashes(cmd.OutOrStdout(), stashes)
			return nil
		},
	}
}
