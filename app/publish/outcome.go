package publish

import (
	"fmt"
	"sync"
	"time"

	"github.com/boardswallah/boards-press/app/content"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusInFlight  Status = "in_flight"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusInFlight},
	StatusInFlight: {StatusSucceeded, StatusFailed},
	StatusFailed:   {StatusInFlight},
}

func canTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// outcome tracks one candidate through the pipeline. The candidate is kept so a retry
// republishes exactly what was generated.
type outcome struct {
	candidate content.Article
	status    Status
	reason    string
	attempts  int
	updatedAt time.Time
}

func (o *outcome) moveTo(to Status, now time.Time) error {
	if !canTransition(o.status, to) {
		return fmt.Errorf("%w: %s -> %s", content.ErrInvalidTransition, o.status, to)
	}
	o.status = to
	o.updatedAt = now
	if to == StatusInFlight {
		o.attempts++
		o.reason = ""
	}
	return nil
}

// Outcome is a read-only snapshot of one record's publish state.
type Outcome struct {
	Index     int       `json:"index"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	Attempts  int       `json:"attempts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Batch is an ordered set of candidates published one after another.
type Batch struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	outcomes []*outcome
}

func newBatch(id string, candidates []content.Article, now time.Time) *Batch {
	b := &Batch{ID: id, CreatedAt: now, outcomes: make([]*outcome, len(candidates))}
	for i, c := range candidates {
		b.outcomes[i] = &outcome{candidate: c, status: StatusPending, updatedAt: now}
	}
	return b
}

func (b *Batch) Len() int {
	return len(b.outcomes)
}

// Succeeded is the cumulative number of records currently published.
func (b *Batch) Succeeded() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := 0
	for _, o := range b.outcomes {
		if o.status == StatusSucceeded {
			count++
		}
	}
	return count
}

func (b *Batch) AllPublished() bool {
	return b.Succeeded() == len(b.outcomes)
}

func (b *Batch) Outcomes() []Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Outcome, len(b.outcomes))
	for i, o := range b.outcomes {
		out[i] = Outcome{
			Index:     i,
			Slug:      o.candidate.Slug,
			Title:     o.candidate.Title,
			Status:    o.status,
			Reason:    o.reason,
			Attempts:  o.attempts,
			UpdatedAt: o.updatedAt,
		}
	}
	return out
}

// BatchView is the JSON form of a batch.
type BatchView struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Total        int       `json:"total"`
	Succeeded    int       `json:"succeeded"`
	AllPublished bool      `json:"all_published"`
	Outcomes     []Outcome `json:"outcomes"`
}

func (b *Batch) View() BatchView {
	outcomes := b.Outcomes()
	succeeded := 0
	for _, o := range outcomes {
		if o.Status == StatusSucceeded {
			succeeded++
		}
	}
	return BatchView{
		ID:           b.ID,
		CreatedAt:    b.CreatedAt,
		Total:        len(outcomes),
		Succeeded:    succeeded,
		AllPublished: succeeded == len(outcomes),
		Outcomes:     outcomes,
	}
}

// begin claims record i for an attempt and returns its candidate.
func (b *Batch) begin(i int, now time.Time) (content.Article, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if i < 0 || i >= len(b.outcomes) {
		return content.Article{}, fmt.Errorf("batch %s has no record %d", b.ID, i)
	}
	if err := b.outcomes[i].moveTo(StatusInFlight, now); err != nil {
		return content.Article{}, err
	}
	return b.outcomes[i].candidate, nil
}

func (b *Batch) finish(i int, err error, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o := b.outcomes[i]
	if err != nil {
		o.reason = failureReason(err)
		o.moveTo(StatusFailed, now)
		return
	}
	o.moveTo(StatusSucceeded, now)
}
