package awards

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/tracker/internal/model"
)

//go:embed awards.yaml
var defaultDefinitions []byte

var (
	ErrDuplicateAward = errors.New("awards: duplicate award name")
	ErrUnnamedAward   = errors.New("awards: award name is required")
)

// Counts is the snapshot an award is judged against.
type Counts struct {
	Issues int
	Closed int
	Tags   int
}

// Counter is implemented by anything that can count issues and tags: the
// in-memory store and the SQLite repository both do.
type Counter interface {
	CountIssues(ctx context.Context, closedOnly bool) (int, error)
	CountTags(ctx context.Context) (int, error)
}

// Snapshot counts through c. A failed count is logged and reported as zero so
// award evaluation never fails.
func Snapshot(ctx context.Context, c Counter, logger logrus.FieldLogger) Counts {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	count := func(what string, fn func() (int, error)) int {
		n, err := fn()
		if err != nil {
			logger.WithError(err).WithField("count", what).Warn("award count failed")
			return 0
		}
		return n
	}
	return Counts{
		Issues: count("issues", func() (int, error) { return c.CountIssues(ctx, false) }),
		Closed: count("closed", func() (int, error) { return c.CountIssues(ctx, true) }),
		Tags:   count("tags", func() (int, error) { return c.CountTags(ctx) }),
	}
}

// HasEarned reports whether counts meet the award's threshold. Awards with an
// unknown criterion are never earned.
func HasEarned(a model.Award, counts Counts) bool {
	switch a.Kind() {
	case model.CriterionIssues:
		return counts.Issues >= a.Value
	case model.CriterionClosed:
		return counts.Closed >= a.Value
	case model.CriterionTags:
		return counts.Tags >= a.Value
	default:
		return false
	}
}

// Earned returns the awards met by counts, preserving definition order.
func Earned(all []model.Award, counts Counts) []model.Award {
	out := make([]model.Award, 0, len(all))
	for _, a := range all {
		if HasEarned(a, counts) {
			out = append(out, a)
		}
	}
	return out
}

type definitionFile struct {
	Version int           `yaml:"version"`
	Awards  []model.Award `yaml:"awards"`
}

// Parse decodes a definitions document and validates it.
func Parse(raw []byte) ([]model.Award, error) {
	var doc definitionFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode awards: %w", err)
	}
	if err := Validate(doc.Awards); err != nil {
		return nil, err
	}
	return doc.Awards, nil
}

// Validate checks that names are present and unique, since a name is the
// award's identity, and that every criterion is known.
func Validate(all []model.Award) error {
	seen := make(map[string]struct{}, len(all))
	var errs []error
	for idx, a := range all {
		name := strings.TrimSpace(a.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("%w: entry %d", ErrUnnamedAward, idx))
			continue
		}
		if _, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateAward, name))
		}
		seen[name] = struct{}{}
		if a.Kind() == model.CriterionUnknown {
			errs = append(errs, fmt.Errorf("%w: %q on %q", model.ErrUnknownCriterion, a.Criterion, name))
		}
	}
	return errors.Join(errs...)
}

var (
	loadOnce sync.Once
	loaded   []model.Award
	loadErr  error
)

// Load returns the embedded award definitions, decoding them on first use.
func Load() ([]model.Award, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Parse(defaultDefinitions)
	})
	if loadErr != nil {
		return nil, loadErr
	}
	out := make([]model.Award, len(loaded))
	copy(out, loaded)
	return out, nil
}

func MustDefault() []model.Award {
	all, err := Load()
	if err != nil {
		panic(err)
	}
	return all
}
