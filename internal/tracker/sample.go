package tracker

import (
	"fmt"

	"github.com/sandeepkv93/tracker/internal/model"
)

const (
	sampleTags         = 5
	sampleIssuesPerTag = 10
)

// Rand is the subset of math/rand/v2 used for sample data.
type Rand interface {
	IntN(n int) int
}

// CreateSampleData adds five tags with ten issues each. Completion and
// priority are drawn from rng.
func (c *Controller) CreateSampleData(rng Rand) {
	for t := 1; t <= sampleTags; t++ {
		tag := c.store.NewTag(func(tg *model.Tag) {
			tg.SetName(fmt.Sprintf("Tag %d", t))
		})
		for i := 1; i <= sampleIssuesPerTag; i++ {
			c.store.NewIssue(func(issue *model.Issue) {
				issue.SetTitle(fmt.Sprintf("Issue %d-%d", t, i))
				issue.SetContent("Description goes here")
				issue.Completed = rng.IntN(2) == 1
				issue.Priority = model.Priority(rng.IntN(3))
				model.Attach(issue, tag)
			})
		}
	}
	c.saver.SaveNow()
}
