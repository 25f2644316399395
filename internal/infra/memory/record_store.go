package memory

import (
	"context"
	"fmt"
	"sync"

	"line-quiz-bot/internal/app"
	"line-quiz-bot/internal/domain"
)

// RecordStore is an in-memory implementation of app.RecordStore, used by
// tests and demo runs without a configured sheet. FailNext makes the next
// call return an error, which tests use to exercise fail-closed paths.
type RecordStore struct {
	mu       sync.RWMutex
	rows     [][]string
	failNext error
}

func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// FailNext injects an error into the next store call.
func (s *RecordStore) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Rows returns a copy of all rows, for assertions.
func (s *RecordStore) Rows() [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (s *RecordStore) FindByParticipant(_ context.Context, participantID string) (app.RowRef, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return 0, false, err
	}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if cell(s.rows[i], app.ColParticipantID) == participantID {
			return app.RowRef(i + 1), true, nil
		}
	}
	return 0, false, nil
}

func (s *RecordStore) ReadCell(_ context.Context, row app.RowRef, col int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return "", err
	}
	if int(row) < 1 || int(row) > len(s.rows) {
		return "", fmt.Errorf("read cell: row %d: %w", row, domain.ErrRecordNotFound)
	}
	return cell(s.rows[row-1], col), nil
}

func (s *RecordStore) WriteCell(_ context.Context, row app.RowRef, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	if int(row) < 1 || int(row) > len(s.rows) {
		return fmt.Errorf("write cell: row %d: %w", row, domain.ErrRecordNotFound)
	}
	r := s.rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	s.rows[row-1] = r
	return nil
}

func (s *RecordStore) InsertRow(_ context.Context, values []string, at app.RowRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return err
	}
	row := append([]string(nil), values...)
	idx := int(at) - 1
	if idx < 0 || idx >= len(s.rows) {
		s.rows = append(s.rows, row)
		return nil
	}
	s.rows = append(s.rows[:idx], append([][]string{row}, s.rows[idx:]...)...)
	return nil
}

func (s *RecordStore) ListColumn(_ context.Context, col int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = cell(row, col)
	}
	return out, nil
}

func (s *RecordStore) takeFailure() error {
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	return nil
}

func cell(row []string, col int) string {
	if col-1 < len(row) {
		return row[col-1]
	}
	return ""
}
