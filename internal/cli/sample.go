package cli

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"
)

func NewSampleCommand(rootOpts *RootOptions) *cobra.Command {
	var seed uint64
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Add sample tags and issues",
		Long: `Add five tags with ten issues each. Completion and priority are random;
pass --seed for a repeatable data set.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), rootOpts, runtimeOptions{logTo: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer rt.Close()

			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			rt.ctrl.CreateSampleData(rand.New(rand.NewPCG(seed, seed)))
			if err := rt.store.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample data added: %d issues, %d tags\n",
				len(rt.store.Issues()), len(rt.store.Tags()))
			return nil
		},
	}
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}
