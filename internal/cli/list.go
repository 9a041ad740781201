package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/tracker/internal/commands"
	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/query"
	"github.com/sandeepkv93/tracker/internal/tracker"
)

const timeLayout = time.RFC3339

type ListOptions struct {
	Tag      string
	Recent   bool
	Search   string
	Tokens   []string
	Status   string
	Priority string
	Sort     string
	Asc      bool
	Explain  bool
}

type issueJSON struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Status   string   `json:"status"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
	Created  string   `json:"created"`
	Modified string   `json:"modified"`
	Reminder string   `json:"reminder,omitempty"`
}

type listJSON struct {
	Filter    string      `json:"filter"`
	Predicate string      `json:"predicate,omitempty"`
	Issues    []issueJSON `json:"issues"`
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List issues matching a filter",
		Long: `List issues the way the sidebar would show them.

Without --tag the "All Issues" filter is used; --recent narrows it to issues
modified in the last seven days. --status and --priority enable the advanced
filter.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), rootOpts, runtimeOptions{logTo: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := applyListOptions(rt.ctrl, opts); err != nil {
				return err
			}
			return writeList(cmd.OutOrStdout(), rootOpts.Format, rt.ctrl, opts.Explain)
		},
	}

	cmd.Flags().StringVar(&opts.Tag, "tag", "", "show the filter for this tag")
	cmd.Flags().BoolVar(&opts.Recent, "recent", false, "only issues modified in the last seven days")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "text the title or description must contain")
	cmd.Flags().StringSliceVar(&opts.Tokens, "with-tag", nil, "additional tags every issue must carry")
	cmd.Flags().StringVar(&opts.Status, "status", "", "all, open or closed")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "any, low, medium or high")
	cmd.Flags().StringVar(&opts.Sort, "sort", "created", "created or modified")
	cmd.Flags().BoolVar(&opts.Asc, "asc", false, "oldest first")
	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the predicate the filter runs")
	return cmd
}

// applyListOptions drives the controller through the same command grammar
// the palette uses, so flags and palette commands cannot drift apart.
func applyListOptions(ctrl *tracker.Controller, opts *ListOptions) error {
	switch {
	case opts.Tag != "":
		tag, ok := ctrl.Store().TagByName(opts.Tag)
		if !ok {
			return fmt.Errorf("no tag named %q", opts.Tag)
		}
		ctrl.SelectFilter(model.TagFilters([]*model.Tag{tag})[0])
	case opts.Recent:
		ctrl.SelectFilter(model.FilterRecent(model.Now()))
	}

	tokens := make([]*model.Tag, 0, len(opts.Tokens))
	for _, name := range opts.Tokens {
		tag, ok := ctrl.Store().TagByName(name)
		if !ok {
			return fmt.Errorf("no tag named %q", name)
		}
		tokens = append(tokens, tag)
	}
	ctrl.UpdateFilter(func(s *query.FilterState) { s.Tokens = tokens })

	dir := "desc"
	if opts.Asc {
		dir = "asc"
	}
	lines := []string{
		"search " + opts.Search,
		fmt.Sprintf("sort %s %s", opts.Sort, dir),
	}
	if opts.Status != "" || opts.Priority != "" {
		lines = append(lines, "filter on")
		if opts.Status != "" {
			lines = append(lines, "status "+opts.Status)
		}
		if opts.Priority != "" {
			lines = append(lines, "prio "+opts.Priority)
		}
	}

	h := commands.ForController(ctrl)
	for _, line := range lines {
		cmd, err := commands.Parse(line)
		if err != nil {
			return err
		}
		if _, err := commands.Execute(cmd, h); err != nil {
			return err
		}
	}
	return nil
}

func writeList(w io.Writer, format string, ctrl *tracker.Controller, explain bool) error {
	state := ctrl.Filter()
	issues := ctrl.IssuesForSelectedFilter()
	predicate := ""
	if explain {
		predicate = ctrl.Explain()
	}

	if format == "json" {
		out := listJSON{Filter: state.Selected.Name, Predicate: predicate, Issues: make([]issueJSON, 0, len(issues))}
		for _, issue := range issues {
			out.Issues = append(out.Issues, toIssueJSON(issue))
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "%s (%d)\n", state.Selected.Name, len(issues))
	if explain {
		fmt.Fprintf(w, "where %s\n", predicate)
	}
	for _, issue := range issues {
		check := " "
		if issue.Completed {
			check = "x"
		}
		line := fmt.Sprintf("[%s] %-6s %s", check, issue.Priority, issue.TitleText())
		for _, t := range issue.SortedTags() {
			line += " #" + t.NameText()
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func toIssueJSON(issue *model.Issue) issueJSON {
	out := issueJSON{
		ID:       issue.ID,
		Title:    issue.TitleText(),
		Status:   issue.Status(),
		Priority: issue.Priority.String(),
		Tags:     make([]string, 0, issue.TagCount()),
		Created:  issue.Created().Format(timeLayout),
		Modified: issue.Modified().Format(timeLayout),
	}
	for _, t := range issue.SortedTags() {
		out.Tags = append(out.Tags, t.NameText())
	}
	if issue.ReminderEnabled {
		out.Reminder = issue.Reminder().Local().Format("15:04")
	}
	return out
}
