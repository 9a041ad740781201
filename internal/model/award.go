package model

import (
	"errors"
	"strings"
)

var ErrUnknownCriterion = errors.New("model: unknown award criterion")

type Criterion int

const (
	CriterionUnknown Criterion = iota
	CriterionIssues
	CriterionClosed
	CriterionTags
)

func ParseCriterion(raw string) Criterion {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "issues":
		return CriterionIssues
	case "closed":
		return CriterionClosed
	case "tags":
		return CriterionTags
	default:
		return CriterionUnknown
	}
}

func (c Criterion) String() string {
	switch c {
	case CriterionIssues:
		return "issues"
	case CriterionClosed:
		return "closed"
	case CriterionTags:
		return "tags"
	default:
		return "unknown"
	}
}

// Award is static configuration. Its identity is its name.
type Award struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
	Criterion   string `yaml:"criterion"`
	Value       int    `yaml:"value"`
	Image       string `yaml:"image"`
}

func (a Award) ID() string { return a.Name }

func (a Award) Kind() Criterion { return ParseCriterion(a.Criterion) }
