package testfixtures

import "sync"

// Push is one event delivered through a RecordingPublisher.
type Push struct {
	ConnID  string
	Event   string
	Payload any
}

// RecordingPublisher captures pushes instead of sending them.
type RecordingPublisher struct {
	mu     sync.Mutex
	pushes []Push
}

// NewRecordingPublisher returns an empty recorder.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Publish implements application.Publisher.
func (p *RecordingPublisher) Publish(connID, event string, payload any) {
	p.mu.Lock()
	p.pushes = append(p.pushes, Push{ConnID: connID, Event: event, Payload: payload})
	p.mu.Unlock()
}

// Pushes returns a copy of everything recorded so far.
func (p *RecordingPublisher) Pushes() []Push {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Push(nil), p.pushes...)
}

// Count returns how many times event was pushed to connID.
func (p *RecordingPublisher) Count(connID, event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, push := range p.pushes {
		if push.ConnID == connID && push.Event == event {
			n++
		}
	}
	return n
}

// Last returns the newest push of event to connID.
func (p *RecordingPublisher) Last(connID, event string) (Push, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.pushes) - 1; i >= 0; i-- {
		if push := p.pushes[i]; push.ConnID == connID && push.Event == event {
			return push, true
		}
	}
	return Push{}, false
}

// Reset forgets recorded pushes.
func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	p.pushes = nil
	p.mu.Unlock()
}

// RecordingChanges captures the codes handed to a change recorder.
type RecordingChanges struct {
	mu      sync.Mutex
	Dirty   []string
	Deleted []string
}

// MarkDirty implements application.ChangeRecorder.
func (c *RecordingChanges) MarkDirty(code string) {
	c.mu.Lock()
	c.Dirty = append(c.Dirty, code)
	c.mu.Unlock()
}

// MarkDeleted implements application.ChangeRecorder.
func (c *RecordingChanges) MarkDeleted(code string) {
	c.mu.Lock()
	c.Deleted = append(c.Deleted, code)
	c.mu.Unlock()
}
