package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/tracker/internal/awards"
	"github.com/sandeepkv93/tracker/internal/tracker"
)

type awardJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Criterion   string `json:"criterion"`
	Value       int    `json:"value"`
	Earned      bool   `json:"earned"`
}

type awardsJSON struct {
	Counts awards.Counts `json:"counts"`
	Awards []awardJSON   `json:"awards"`
}

func NewAwardsCommand(rootOpts *RootOptions) *cobra.Command {
	var earnedOnly bool
	cmd := &cobra.Command{
		Use:           "awards",
		Short:         "Show awards and which ones are earned",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), rootOpts, runtimeOptions{logTo: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer rt.Close()
			return writeAwards(cmd.OutOrStdout(), rootOpts.Format, rt.ctrl, earnedOnly)
		},
	}
	cmd.Flags().BoolVar(&earnedOnly, "earned", false, "only list earned awards")
	return cmd
}

func writeAwards(w io.Writer, format string, ctrl *tracker.Controller, earnedOnly bool) error {
	counts := ctrl.Counts(context.Background())
	out := awardsJSON{Counts: counts}
	for _, a := range ctrl.Awards() {
		earned := awards.HasEarned(a, counts)
		if earnedOnly && !earned {
			continue
		}
		out.Awards = append(out.Awards, awardJSON{
			Name:        a.Name,
			Description: a.Description,
			Criterion:   a.Criterion,
			Value:       a.Value,
			Earned:      earned,
		})
	}

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "issues: %d  closed: %d  tags: %d\n", counts.Issues, counts.Closed, counts.Tags)
	for _, a := range out.Awards {
		mark := " "
		if a.Earned {
			mark = "*"
		}
		fmt.Fprintf(w, "[%s] %-24s %s\n", mark, a.Name, a.Description)
	}
	return nil
}
