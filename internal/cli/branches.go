package cli

import (
	"github.com/spf13/cobra"
)

// newBranchesCmd creates the branches command
func newBranchesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "branches <name>",
		Short: "List the local branches of a registered repository",
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

			branches, err := svc.ListBranches(cmd.Context(), repo.ID)
			if err != nil {
				return err
			}
			writeBranches(cmd.OutOrStdout(), branches)
			return nil
		},
	}
}
