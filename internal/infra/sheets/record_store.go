package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"line-quiz-bot/internal/app"
	"line-quiz-bot/internal/domain"
)

// Config locates the backing spreadsheet.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	// HeaderRows is the number of header rows above the data (usually 1).
	HeaderRows int
}

// RecordStore implements app.RecordStore on a Google Sheet. Row references
// are 1-based over the data region, i.e. sheet row = HeaderRows + row.
type RecordStore struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	headerRows    int
}

func NewRecordStore(ctx context.Context, cfg Config) (*RecordStore, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	opts := []option.ClientOption{}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	name := cfg.SheetName
	if name == "" {
		name = "Sheet1"
	}
	return &RecordStore{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     name,
		headerRows:    cfg.HeaderRows,
	}, nil
}

func (s *RecordStore) FindByParticipant(ctx context.Context, participantID string) (app.RowRef, bool, error) {
	participants, err := s.ListColumn(ctx, app.ColParticipantID)
	if err != nil {
		return 0, false, err
	}
	for i := len(participants) - 1; i >= 0; i-- {
		if participants[i] == participantID {
			return app.RowRef(i + 1), true, nil
		}
	}
	return 0, false, nil
}

func (s *RecordStore) ReadCell(ctx context.Context, row app.RowRef, col int) (string, error) {
	rng := s.cellRange(row, col)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read cell %s: %w: %v", rng, domain.ErrStoreUnavailable, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return fmt.Sprint(resp.Values[0][0]), nil
}

func (s *RecordStore) WriteCell(ctx context.Context, row app.RowRef, col int, value string) error {
	rng := s.cellRange(row, col)
	vr := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write cell %s: %w: %v", rng, domain.ErrStoreUnavailable, err)
	}
	return nil
}

// InsertRow appends past the current tail; the bookkeeper always inserts at
// len+1, so append semantics satisfy the contract and survive concurrent
// writers better than a positional update would.
func (s *RecordStore) InsertRow(ctx context.Context, values []string, _ app.RowRef) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{cells}}
	rng := fmt.Sprintf("%s!A%d", s.sheetName, s.headerRows+1)
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert row: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RecordStore) ListColumn(ctx context.Context, col int) ([]string, error) {
	letter := columnLetter(col)
	rng := fmt.Sprintf("%s!%s%d:%s", s.sheetName, letter, s.headerRows+1, letter)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list column %s: %w: %v", letter, domain.ErrStoreUnavailable, err)
	}
	out := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			out = append(out, "")
			continue
		}
		out = append(out, fmt.Sprint(row[0]))
	}
	return out, nil
}

func (s *RecordStore) cellRange(row app.RowRef, col int) string {
	return fmt.Sprintf("%s!%s%d", s.sheetName, columnLetter(col), s.headerRows+int(row))
}

func columnLetter(col int) string {
	// The schema never exceeds column Z.
	return string(rune('A' + col - 1))
}
