// Package watch implements the watch-expression store: named persistent
// expressions whose last evaluation result (value or error, mutually
// exclusive) is memoised for watch_evaluate_all and watch_list.
package watch

import (
	"sync"

	"github.com/dev-console/debugctl/internal/errs"
)

// Expression is one watch-expression record.
type Expression struct {
	ID                string
	Source            string
	LastValueText     string
	HasLastValue      bool
	LastErrorText     string
	HasLastError      bool
	LastEvaluatedAtMs int64
}

func (e *Expression) clone() Expression { return *e }

// Store is the watch-expression registry. No adapter interaction happens
// here — evaluation is performed by the caller (against the expression
// evaluator) and reported back via SetValue/SetError.
type Store struct {
	mu      sync.Mutex
	counter int
	records map[string]*Expression
}

// New builds an empty store.
func New() *Store {
	return &Store{records: make(map[string]*Expression)}
}

// Add registers a new watch expression and returns its id.
func (s *Store) Add(source string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	id := "w-" + itoa(s.counter)
	s.records[id] = &Expression{ID: id, Source: source}
	return id
}

// Remove deletes a watch expression by id.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return errs.New(errs.NotFound, "no watch expression %q", id)
	}
	delete(s.records, id)
	return nil
}

// SetValue records a successful evaluation, clearing any prior error.
func (s *Store) SetValue(id, valueText string, nowMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no watch expression %q", id)
	}
	rec.LastValueText = valueText
	rec.HasLastValue = true
	rec.LastErrorText = ""
	rec.HasLastError = false
	rec.LastEvaluatedAtMs = nowMs
	return nil
}

// SetError records a failed evaluation, clearing any prior value.
func (s *Store) SetError(id, errorText string, nowMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return errs.New(errs.NotFound, "no watch expression %q", id)
	}
	rec.LastErrorText = errorText
	rec.HasLastError = true
	rec.LastValueText = ""
	rec.HasLastValue = false
	rec.LastEvaluatedAtMs = nowMs
	return nil
}

// Get returns a copy of a record by id.
func (s *Store) Get(id string) (Expression, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return Expression{}, false
	}
	return rec.clone(), true
}

// List returns a snapshot of every record, in insertion order.
func (s *Store) List() []Expression {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Expression, 0, len(s.records))
	for i := 1; i <= s.counter; i++ {
		id := "w-" + itoa(i)
		if rec, ok := s.records[id]; ok {
			out = append(out, rec.clone())
		}
	}
	return out
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
