package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/tracker/internal/model"
)

var ErrMalformedPredicate = errors.New("query: malformed predicate")

type Kind int

const (
	KindHasTag Kind = iota + 1
	KindModifiedSince
	KindTextContains
	KindPriorityIs
	KindCompletedIs
)

type Status string

const (
	StatusAll    Status = "all"
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// ParseStatus falls back to StatusAll for anything it does not recognise.
func ParseStatus(raw string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusOpen:
		return StatusOpen
	case StatusClosed:
		return StatusClosed
	default:
		return StatusAll
	}
}

type SortKey string

const (
	SortCreationDate     SortKey = "creationDate"
	SortModificationDate SortKey = "modificationDate"
)

// ParseSortKey falls back to SortCreationDate for unknown keys.
func ParseSortKey(raw string) SortKey {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "modificationdate", "modified", "modification":
		return SortModificationDate
	default:
		return SortCreationDate
	}
}

// AnyPriority disables the priority constraint.
const AnyPriority = -1

type FilterState struct {
	Selected   model.Filter
	Text       string
	Tokens     []*model.Tag
	Advanced   bool
	Priority   int
	Status     Status
	Sort       SortKey
	Descending bool
}

func DefaultFilterState() FilterState {
	return FilterState{
		Selected:   model.FilterAll,
		Priority:   AnyPriority,
		Status:     StatusAll,
		Sort:       SortCreationDate,
		Descending: true,
	}
}

type Predicate struct {
	Kind      Kind
	Tag       *model.Tag
	Since     time.Time
	Text      string
	Priority  model.Priority
	Completed bool
}

func HasTag(t *model.Tag) Predicate { return Predicate{Kind: KindHasTag, Tag: t} }

func ModifiedSince(at time.Time) Predicate { return Predicate{Kind: KindModifiedSince, Since: at} }

func TextContains(text string) Predicate { return Predicate{Kind: KindTextContains, Text: text} }

func PriorityIs(p model.Priority) Predicate { return Predicate{Kind: KindPriorityIs, Priority: p} }

func CompletedIs(v bool) Predicate { return Predicate{Kind: KindCompletedIs, Completed: v} }

func (p Predicate) Match(issue *model.Issue) (bool, error) {
	switch p.Kind {
	case KindHasTag:
		if p.Tag == nil {
			return false, fmt.Errorf("%w: tag predicate without tag", ErrMalformedPredicate)
		}
		return issue.HasTag(p.Tag), nil
	case KindModifiedSince:
		return !issue.Modified().Before(p.Since), nil
	case KindTextContains:
		return model.FoldContains(issue.TitleText(), p.Text) || model.FoldContains(issue.ContentText(), p.Text), nil
	case KindPriorityIs:
		return issue.Priority == p.Priority, nil
	case KindCompletedIs:
		return issue.Completed == p.Completed, nil
	default:
		return false, fmt.Errorf("%w: kind %d", ErrMalformedPredicate, p.Kind)
	}
}

func (p Predicate) String() string {
	switch p.Kind {
	case KindHasTag:
		if p.Tag == nil {
			return "tags CONTAINS <nil>"
		}
		return fmt.Sprintf("tags CONTAINS %q", p.Tag.NameText())
	case KindModifiedSince:
		return fmt.Sprintf("modificationDate >= %s", p.Since.UTC().Format(time.RFC3339))
	case KindTextContains:
		return fmt.Sprintf("(title CONTAINS[c] %q OR content CONTAINS[c] %q)", p.Text, p.Text)
	case KindPriorityIs:
		return fmt.Sprintf("priority = %d", int(p.Priority))
	case KindCompletedIs:
		return fmt.Sprintf("completed = %t", p.Completed)
	default:
		return fmt.Sprintf("<malformed kind %d>", p.Kind)
	}
}

// Build turns the filter state into conjunctive predicates: base filter,
// search text, one per token, then the advanced priority/status constraints.
func Build(state FilterState) []Predicate {
	preds := make([]Predicate, 0, 3+len(state.Tokens))

	if state.Selected.Tag != nil {
		preds = append(preds, HasTag(state.Selected.Tag))
	} else {
		preds = append(preds, ModifiedSince(state.Selected.MinModificationDate))
	}

	if text := strings.TrimSpace(state.Text); text != "" {
		preds = append(preds, TextContains(text))
	}

	for _, token := range state.Tokens {
		preds = append(preds, HasTag(token))
	}

	if state.Advanced {
		if state.Priority >= 0 {
			preds = append(preds, PriorityIs(model.Priority(state.Priority)))
		}
		if state.Status != StatusAll && state.Status != "" {
			preds = append(preds, CompletedIs(state.Status == StatusClosed))
		}
	}
	return preds
}

func Describe(preds []Predicate) string {
	if len(preds) == 0 {
		return "TRUEPREDICATE"
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, " AND ")
}
