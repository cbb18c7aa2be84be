package assessment

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
	contexts  map[string]Context
	answers   map[AnswerID]Answer
	seq       map[AnswerID]int64
	next      int64
}

// NewInMemoryStore returns a Store for tests and the offline "memory" driver.
func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[string]Question{},
		contexts:  map[string]Context{},
		answers:   map[AnswerID]Answer{},
		seq:       map[AnswerID]int64{},
	}
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) PutContext(_ context.Context, c Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.Items = append([]Item(nil), c.Items...)
	m.contexts[c.ID] = c
	return nil
}

func (m *memoryStore) GetContext(_ context.Context, id string) (Context, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contexts[id]
	if !ok {
		return Context{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryStore) UpsertAnswer(_ context.Context, a Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := a.ID()
	prev, ok := m.answers[id]
	if !ok {
		m.next++
		m.seq[id] = m.next
	}
	if a.FinalizedAt == nil {
		a.FinalizedAt = prev.FinalizedAt
	}
	m.answers[id] = a
	return nil
}

func (m *memoryStore) ListByStudentContext(_ context.Context, studentID, contextID string) ([]Answer, error) {
	return m.filter(func(a Answer) bool { return a.StudentID == studentID && a.ContextID == contextID }), nil
}

func (m *memoryStore) ListByQuestion(_ context.Context, questionID string) ([]Answer, error) {
	return m.filter(func(a Answer) bool { return a.QuestionID == questionID }), nil
}

func (m *memoryStore) ListByContext(_ context.Context, contextID string) ([]Answer, error) {
	return m.filter(func(a Answer) bool { return a.ContextID == contextID }), nil
}

// filter returns matches in first-insertion order, like the SQL store's rowid order.
func (m *memoryStore) filter(keep func(Answer) bool) []Answer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Answer{}
	for _, a := range m.answers {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return m.seq[out[i].ID()] < m.seq[out[j].ID()] })
	return out
}
