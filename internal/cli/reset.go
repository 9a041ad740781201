package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errResetNotConfirmed = errors.New("refusing to delete everything without --yes")

func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:           "reset",
		Short:         "Delete every issue and tag",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errResetNotConfirmed
			}
			rt, err := openRuntime(cmd.Context(), rootOpts, runtimeOptions{logTo: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer rt.Close()

			rt.ctrl.DeleteAll()
			if err := rt.store.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all issues and tags deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting everything")
	return cmd
}
