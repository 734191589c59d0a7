// Package sink appends exported rows to an external spreadsheet.
package sink

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Sreehari2710/Apify-Reels-Discovery/internal/model"
)

// Appender appends rows to the end of a sheet.
type Appender interface {
	Append(ctx context.Context, rows [][]string) error
}

// Noop discards rows. It stands in when no spreadsheet is configured.
type Noop struct{}

// Append implements Appender.
func (Noop) Append(context.Context, [][]string) error { return nil }

// Sheets appends to a Google spreadsheet through the Sheets v4 API.
type Sheets struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	rng           string
}

// NewSheets builds a Sheets appender. Without extra options it
// authenticates with the service-account key in credentialsFile.
func NewSheets(ctx context.Context, spreadsheetID, rng, credentialsFile string, opts ...option.ClientOption) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, eris.New("sheets: spreadsheet id is required")
	}
	if rng == "" {
		rng = "Sheet1!A1"
	}
	if len(opts) == 0 {
		opts = []option.ClientOption{
			option.WithCredentialsFile(credentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		}
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create service")
	}
	return &Sheets{values: svc.Spreadsheets.Values, spreadsheetID: spreadsheetID, rng: rng}, nil
}

// Append implements Appender. Values are written RAW.
func (s *Sheets) Append(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	_, err := s.values.Append(s.spreadsheetID, s.rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrap(err, "sheets: append values")
	}
	return nil
}

// Config selects and configures the spreadsheet sink.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	Range           string
}

// New returns a Sheets appender when a spreadsheet and readable credentials
// are configured, and Noop otherwise.
func New(ctx context.Context, cfg Config) Appender {
	if cfg.SpreadsheetID == "" {
		zap.L().Info("spreadsheet sink disabled: no spreadsheet id configured")
		return Noop{}
	}
	if _, err := os.Stat(cfg.CredentialsFile); err != nil {
		zap.L().Warn("spreadsheet sink disabled: credentials file not readable",
			zap.String("path", cfg.CredentialsFile),
			zap.Error(err),
		)
		return Noop{}
	}

	s, err := NewSheets(ctx, cfg.SpreadsheetID, cfg.Range, cfg.CredentialsFile)
	if err != nil {
		zap.L().Error("spreadsheet sink disabled", zap.Error(err))
		return Noop{}
	}
	return s
}

// BestEffort appends rows and logs any failure as a SinkError. It never
// fails the caller.
func BestEffort(ctx context.Context, a Appender, rows [][]string) {
	if a == nil || len(rows) == 0 {
		return
	}
	if err := a.Append(ctx, rows); err != nil {
		zap.L().Error("sink append failed",
			zap.Int("rows", len(rows)),
			zap.Error(&model.SinkError{Sink: "sheets", Err: err}),
		)
		return
	}
	zap.L().Info("rows appended to spreadsheet", zap.Int("rows", len(rows)))
}
