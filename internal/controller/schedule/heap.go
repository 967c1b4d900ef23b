package schedule

import (
	"time"

	"github.com/hashicorp/cronexpr"
)

// entry is a single cron expression of a job.
type entry struct {
	jobID    string
	cron     string
	nextRun  time.Time
	cronExpr *cronexpr.Expression
	index    int
}

type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool { return h[i].nextRun.Before(h[j].nextRun) }

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *entryHeap) Push(x any) {
	n := len(*h)
	item := x.(*entry)
	item.index = n
	*h = append(*h, item)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[0 : n-1]
	return item
}
