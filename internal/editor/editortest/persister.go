package editortest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/hylla/rota/internal/editor"
)

// Call records one persistence request.
type Call struct {
	Op  string
	At  time.Time
	Doc editor.Document
}

// Persister records requests and answers with configurable statuses.
type Persister struct {
	mu           sync.Mutex
	clock        interface{ Now() time.Time }
	SaveStatus   int
	CommitStatus int
	Err          error
	calls        []Call
}

// NewPersister constructs a persister answering 204 to saves and 200 to commits.
func NewPersister(clock interface{ Now() time.Time }) *Persister {
	return &Persister{
		clock:        clock,
		SaveStatus:   http.StatusNoContent,
		CommitStatus: http.StatusOK,
	}
}

// Save records a save request.
func (p *Persister) Save(_ context.Context, doc editor.Document) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: "save", At: p.now(), Doc: doc})
	if p.Err != nil {
		return 0, p.Err
	}
	return p.SaveStatus, nil
}

// Commit records a commit request.
func (p *Persister) Commit(context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Op: "commit", At: p.now()})
	if p.Err != nil {
		return 0, p.Err
	}
	return p.CommitStatus, nil
}

// SetCommitStatus changes the status returned by later commits.
func (p *Persister) SetCommitStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CommitStatus = status
}

// SetSaveStatus changes the status returned by later saves.
func (p *Persister) SetSaveStatus(status int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.SaveStatus = status
}

// Calls returns the recorded requests, optionally filtered by op.
func (p *Persister) Calls(op string) []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, 0, len(p.calls))
	for _, c := range p.calls {
		if op == "" || c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// now reads the attached clock.
func (p *Persister) now() time.Time {
	if p.clock == nil {
		return time.Time{}
	}
	return p.clock.Now()
}

// Inline runs work on the calling goroutine so tests observe results immediately.
func Inline(f func()) {
	f()
}
