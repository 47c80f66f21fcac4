package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/sink"
	"github.com/vitaliisumka/workbook-parser/internal/validation"
)

// Store is a sink.Emitter that inserts one flow_records row per push.
type Store struct {
	*sink.Staging

	db    *sql.DB
	runID string
	now   func() time.Time

	mu sync.Mutex
}

// New opens (and migrates) the database at path. Records pushed through the
// store are tagged with runID.
func New(path, runID string, v *validation.Validator) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	store := &Store{
		Staging: sink.NewStaging(v),
		db:      db,
		runID:   runID,
		now:     time.Now,
	}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Push inserts the staged record in its own transaction.
func (s *Store) Push(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.Take()
	values := make(map[flow.Field]string, len(rec.Values))
	for _, v := range rec.Values {
		values[v.Field] = v.Value
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	args := make([]any, 0, len(insertColumns)+3)
	args = append(args, s.runID, rec.Seq)
	for _, f := range flow.Fields() {
		args = append(args, values[f])
	}
	args = append(args, s.now().UTC().Format(time.RFC3339Nano))

	if _, err = tx.ExecContext(ctx, insertStatement, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("sqlite: insert record %d: %w", rec.Seq, err)
	}

	return tx.Commit()
}

// Records returns the records stored for a run, in push order.
func (s *Store) Records(ctx context.Context, runID string) ([]sink.Record, error) {
	fields := flow.Fields()
	query := fmt.Sprintf(`SELECT seq, %s FROM flow_records WHERE run_id = ? ORDER BY seq`, strings.Join(fieldColumns, ", "))

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sink.Record
	for rows.Next() {
		var seq int
		cells := make([]string, len(fields))
		dest := make([]any, 0, len(fields)+1)
		dest = append(dest, &seq)
		for i := range cells {
			dest = append(dest, &cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		rec := sink.Record{Seq: seq}
		for i, f := range fields {
			if cells[i] != "" {
				rec.Values = append(rec.Values, flow.Value{Field: f, Value: cells[i]})
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of records stored for a run.
func (s *Store) Count(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flow_records WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// column maps an output field to its column name.
func column(f flow.Field) string {
	return strings.ReplaceAll(string(f), "-", "_")
}

var (
	fieldColumns    = columnNames()
	insertColumns   = append(append([]string{"run_id", "seq"}, fieldColumns...), "ingested_at")
	insertStatement = fmt.Sprintf(`INSERT INTO flow_records (%s) VALUES (%s)`,
		strings.Join(insertColumns, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(insertColumns)), ", "))
)

func columnNames() []string {
	fields := flow.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = column(f)
	}
	return out
}

func (s *Store) migrate() error {
	var cols strings.Builder
	for _, c := range fieldColumns {
		cols.WriteString(fmt.Sprintf("\t\t\t%s TEXT NOT NULL DEFAULT '',\n", c))
	}

	statements := []string{
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS flow_records (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
` + cols.String() + `			ingested_at TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_flow_records_id ON flow_records (id);`,
	}

	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}
