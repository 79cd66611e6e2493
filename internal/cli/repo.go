package cli

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// newRepoCmd creates the repo command group
func newRepoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage the set of registered repositories",
	}

	cmd.AddCommand(newRepoAddCmd(a))
	cmd.AddCommand(newRepoRemoveCmd(a))
	cmd.AddCommand(newRepoListCmd(a))

	return cmd
}

// newRepoAddCmd creates the repo add command
func newRepoAddCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Register a repository by its working tree path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := a.reg.AddRepo(name, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", styleBranch(repo.Name), repo.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Name for the repository. Defaults to the directory name.")

	return cmd
}

// newRepoRemoveCmd creates the repo remove command
func newRepoRemoveCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Deregister a repository (the working tree is untouched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := resolveRepo(a, args[0])
			if err != nil {
				return err
			}

			if !force {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Remove %s from the registry?", repo.Name),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return fmt.Errorf("canceled")
				}
				if !confirmed {
					return nil
				}
			}

			svc, err := a.service()
			if err != nil {
				return err
			}
			if err := svc.RemoveRepo(repo.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", repo.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove without confirmation.")

	return cmd
}

// newRepoListCmd creates the repo list command
func newRepoListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repos := a.reg.Repos()
			if len(repos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No repositories registered. Add one with 'githulu repo add <path>'.")
				return nil
			}

			groups := make(map[string]string)
			for _, g := range a.reg.Groups() {
				groups[g.ID] = g.Name
			}

			for _, repo := range repos {
				line := fmt.Sprintf("%s\t%s", styleBranch(repo.Name), repo.Path)
				if group, ok := groups[repo.GroupID]; ok {
					line += "\t[" + group + "]"
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}
