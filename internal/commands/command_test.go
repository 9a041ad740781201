package commands

import (
	"errors"
	"testing"

	"github.com/sandeepkv93/tracker/internal/logging"
	"github.com/sandeepkv93/tracker/internal/model"
	"github.com/sandeepkv93/tracker/internal/query"
	"github.com/sandeepkv93/tracker/internal/scheduler"
	"github.com/sandeepkv93/tracker/internal/tracker"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent", TypeAdd},
		{":tag Work", TypeTag},
		{"untag Work", TypeUntag},
		{"newtag", TypeNewTag},
		{"rename Home", TypeRename},
		{"title Crash on launch", TypeTitle},
		{"content", TypeContent},
		{"priority high", TypePriority},
		{"close", TypeClose},
		{"reopen", TypeReopen},
		{"remind 09:30", TypeRemind},
		{"filter on", TypeFilter},
		{"status closed", TypeStatus},
		{"prio any", TypePrio},
		{"sort modified asc", TypeSort},
		{"search #work", TypeSearch},
		{"DELETE", TypeDelete},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseArguments(t *testing.T) {
	cmd, err := Parse("remind 7:05")
	if err != nil {
		t.Fatalf("parse remind: %v", err)
	}
	if !cmd.Remind.Enabled || cmd.Remind.Hour != 7 || cmd.Remind.Minute != 5 {
		t.Fatalf("unexpected remind args: %+v", cmd.Remind)
	}

	cmd, err = Parse("sort created")
	if err != nil {
		t.Fatalf("parse sort: %v", err)
	}
	if cmd.Sort.Key != query.SortCreationDate || !cmd.Sort.Descending {
		t.Fatalf("unexpected sort args: %+v", cmd.Sort)
	}

	cmd, err = Parse("prio low")
	if err != nil {
		t.Fatalf("parse prio: %v", err)
	}
	if cmd.Prio.Priority != int(model.PriorityLow) {
		t.Fatalf("unexpected prio: %+v", cmd.Prio)
	}
}

func TestParseKeepsInnerWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"search a  b", "a  b"},
		{"  search   a  b  ", "a  b"},
		{"title Crash\ton  launch", "Crash\ton  launch"},
		{"content line one   line two", "line one   line two"},
		{"add\tpay  rent", "pay  rent"},
		{"search", ""},
	}
	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Text == nil || cmd.Text.Text != tc.want {
			t.Fatalf("parse %q text = %+v, want %q", tc.in, cmd.Text, tc.want)
		}
	}
}

func TestParseRejectsBadArguments(t *testing.T) {
	for _, in := range []string{
		"add",
		"priority urgent",
		"remind 25:00",
		"remind soon",
		"filter maybe",
		"status done",
		"sort title",
		"sort created sideways",
		"close now",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}

	_, err = Parse("  /  ")
	if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a TextArgs) (Result, error) {
			called = true
			if a.Text != "write docs" {
				t.Fatalf("unexpected title: %q", a.Text)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("status open")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

func run(t *testing.T, h Handlers, in string) Result {
	t.Helper()
	cmd, err := Parse(in)
	if err != nil {
		t.Fatalf("parse %q: %v", in, err)
	}
	res, err := Execute(cmd, h)
	if err != nil {
		t.Fatalf("execute %q: %v", in, err)
	}
	return res
}

func TestControllerHandlers(t *testing.T) {
	engine := scheduler.NewEngine(4)
	c := tracker.New(tracker.Options{Reminders: engine, Logger: logging.Discard()})
	defer c.Close()
	h := ForController(c)

	run(t, h, "newtag Work")
	run(t, h, "add Login fails")
	issue := c.SelectedIssue()
	if issue == nil || issue.TitleText() != "Login fails" {
		t.Fatalf("expected new issue to be selected, got %+v", issue)
	}

	run(t, h, "tag work")
	if issue.TagList() != "Work" {
		t.Fatalf("unexpected tags: %s", issue.TagList())
	}
	run(t, h, "priority high")
	run(t, h, "content steps to reproduce")
	run(t, h, "close")
	if !issue.Completed || issue.Priority != model.PriorityHigh || issue.ContentText() != "steps to reproduce" {
		t.Fatalf("edits not applied: %+v", issue)
	}

	run(t, h, "filter on")
	run(t, h, "status open")
	if got := c.IssuesForSelectedFilter(); len(got) != 0 {
		t.Fatalf("closed issue should be filtered out, got %d", len(got))
	}
	run(t, h, "reopen")
	if got := c.IssuesForSelectedFilter(); len(got) != 1 {
		t.Fatalf("reopened issue should match, got %d", len(got))
	}

	run(t, h, "remind 08:15")
	if len(engine.Pending(issue.ID)) != 1 || !issue.ReminderEnabled {
		t.Fatalf("expected a pending reminder")
	}
	run(t, h, "remind off")
	if len(engine.Pending(issue.ID)) != 0 {
		t.Fatalf("expected reminder to be cancelled")
	}

	run(t, h, "untag Work")
	if issue.TagCount() != 0 {
		t.Fatalf("expected tag removed")
	}
	run(t, h, "delete")
	if c.SelectedIssue() != nil {
		t.Fatalf("expected selection cleared after delete")
	}

	cmd, _ := Parse("title orphan")
	_, err := Execute(cmd, h)
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeNoSelection {
		t.Fatalf("expected no selection error, got %v", err)
	}
}

func TestAddRefusedAtFreeLimit(t *testing.T) {
	c := tracker.New(tracker.Options{FreeIssueLimit: 1, Logger: logging.Discard()})
	defer c.Close()
	h := ForController(c)

	run(t, h, "add first")
	cmd, _ := Parse("add second")
	_, err := Execute(cmd, h)
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeRefused {
		t.Fatalf("expected refused error, got %v", err)
	}
}
