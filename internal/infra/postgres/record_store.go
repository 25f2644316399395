package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"line-quiz-bot/internal/app"
	"line-quiz-bot/internal/domain"
)

// columnNames maps the positional schema onto table columns, in order.
var columnNames = []string{
	"attempt_key",
	"display_name",
	"completed_at",
	"duration_seconds",
	"participant_id",
	"redeemed",
	"is_first_ever",
	"permanent_id",
	"attempt_number",
}

// RecordStore implements app.RecordStore on Postgres. Rows are ordered by
// insertion (row_idx); RowRef is the 1-based ordinal in that order, matching
// the spreadsheet addressing the bookkeeper uses.
type RecordStore struct {
	pool *pgxpool.Pool
}

func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

func (s *RecordStore) FindByParticipant(ctx context.Context, participantID string) (app.RowRef, bool, error) {
	var ordinal int
	err := s.pool.QueryRow(ctx, `
		SELECT rn FROM (
			SELECT participant_id, row_number() OVER (ORDER BY row_idx) AS rn
			FROM completion_records
		) t
		WHERE participant_id = $1
		ORDER BY rn DESC
		LIMIT 1`, participantID).Scan(&ordinal)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find by participant: %w", err)
	}
	return app.RowRef(ordinal), true, nil
}

func (s *RecordStore) ReadCell(ctx context.Context, row app.RowRef, col int) (string, error) {
	name, err := columnName(col)
	if err != nil {
		return "", err
	}
	var value string
	query := fmt.Sprintf(`SELECT %s FROM completion_records ORDER BY row_idx OFFSET $1 LIMIT 1`, name)
	err = s.pool.QueryRow(ctx, query, int(row)-1).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", fmt.Errorf("read cell (%d,%d): %w", row, col, domain.ErrRecordNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read cell (%d,%d): %w", row, col, err)
	}
	return value, nil
}

func (s *RecordStore) WriteCell(ctx context.Context, row app.RowRef, col int, value string) error {
	name, err := columnName(col)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`
		UPDATE completion_records SET %s = $1
		WHERE row_idx = (SELECT row_idx FROM completion_records ORDER BY row_idx OFFSET $2 LIMIT 1)`, name)
	tag, err := s.pool.Exec(ctx, query, value, int(row)-1)
	if err != nil {
		return fmt.Errorf("write cell (%d,%d): %w", row, col, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("write cell (%d,%d): %w", row, col, domain.ErrRecordNotFound)
	}
	return nil
}

// InsertRow appends; the bookkeeper always targets len+1 so positional
// inserts are unnecessary, as with the sheets implementation.
func (s *RecordStore) InsertRow(ctx context.Context, values []string, _ app.RowRef) error {
	padded := make([]interface{}, len(columnNames))
	for i := range columnNames {
		if i < len(values) {
			padded[i] = values[i]
		} else {
			padded[i] = ""
		}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO completion_records
			(attempt_key, display_name, completed_at, duration_seconds,
			 participant_id, redeemed, is_first_ever, permanent_id, attempt_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, padded...)
	if err != nil {
		return fmt.Errorf("insert row: %w", err)
	}
	return nil
}

func (s *RecordStore) ListColumn(ctx context.Context, col int) ([]string, error) {
	name, err := columnName(col)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM completion_records ORDER BY row_idx`, name)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list column %d: %w", col, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("list column %d: %w", col, err)
		}
		out = append(out, value)
	}
	return out, rows.Err()
}

func columnName(col int) (string, error) {
	if col < 1 || col > len(columnNames) {
		return "", fmt.Errorf("column %d outside schema", col)
	}
	return columnNames[col-1], nil
}
