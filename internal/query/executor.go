package query

import (
	"slices"
	"strings"
	"time"

	"github.com/sandeepkv93/tracker/internal/model"
)

// Execute filters the snapshot with the conjunction of preds and stable-sorts
// the matches by the chosen timestamp. Issues with equal timestamps keep their
// store order. A malformed predicate yields an empty result.
func Execute(issues []*model.Issue, preds []Predicate, key SortKey, descending bool) []*model.Issue {
	out := make([]*model.Issue, 0, len(issues))
	for _, issue := range issues {
		ok, err := matchAll(issue, preds)
		if err != nil {
			return []*model.Issue{}
		}
		if ok {
			out = append(out, issue)
		}
	}

	stamp := sortStamp(key)
	slices.SortStableFunc(out, func(a, b *model.Issue) int {
		c := stamp(a).Compare(stamp(b))
		if descending {
			return -c
		}
		return c
	})
	return out
}

func matchAll(issue *model.Issue, preds []Predicate) (bool, error) {
	matched := true
	for _, p := range preds {
		ok, err := p.Match(issue)
		if err != nil {
			return false, err
		}
		if !ok {
			matched = false
		}
	}
	return matched, nil
}

func sortStamp(key SortKey) func(*model.Issue) time.Time {
	if key == SortModificationDate {
		return (*model.Issue).Modified
	}
	return (*model.Issue).Created
}

// Run builds and executes the predicates for a filter state.
func Run(issues []*model.Issue, state FilterState) []*model.Issue {
	return Execute(issues, Build(state), state.Sort, state.Descending)
}

// MissingTags returns every tag not attached to the issue, in tag order.
func MissingTags(all []*model.Tag, issue *model.Issue) []*model.Tag {
	out := make([]*model.Tag, 0, len(all))
	for _, t := range all {
		if !issue.HasTag(t) {
			out = append(out, t)
		}
	}
	model.SortTags(out)
	return out
}

// SuggestedTokens offers tags for a search that starts with '#'. The rest of
// the text narrows the list by name.
func SuggestedTokens(all []*model.Tag, text string) []*model.Tag {
	if !strings.HasPrefix(text, "#") {
		return []*model.Tag{}
	}
	needle := strings.TrimSpace(strings.TrimPrefix(text, "#"))

	out := make([]*model.Tag, 0, len(all))
	for _, t := range all {
		if needle == "" || model.FoldContains(t.NameText(), needle) {
			out = append(out, t)
		}
	}
	model.SortTags(out)
	return out
}
