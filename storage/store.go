// Package storage persists engine belief tables to SQLite, so a reasoner
// can be stopped and restored with its knowledge intact.
package storage

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/noeta/NAR/errors"
	"github.com/noeta/NAR/nal/engine"
	"github.com/noeta/NAR/nal/parser"
	"github.com/noeta/NAR/nal/task"
	"github.com/noeta/NAR/nal/truth"
)

const schema = `
CREATE TABLE IF NOT EXISTS beliefs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	term TEXT NOT NULL,
	frequency REAL NOT NULL,
	confidence REAL NOT NULL,
	priority REAL NOT NULL,
	durability REAL NOT NULL,
	quality REAL NOT NULL,
	evidence TEXT NOT NULL,
	creation_time INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_beliefs_term ON beliefs(term);
`

// Store is a SQLite-backed snapshot store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a snapshot database at path. Use
// ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open snapshot database %s", path)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create beliefs schema")
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot replaces the stored snapshot with the engine's current
// belief tables. The write is transactional: a failure leaves the previous
// snapshot intact.
func (s *Store) SaveSnapshot(ctx context.Context, e *engine.Engine) error {
	beliefs := e.Beliefs(nil)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin snapshot transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM beliefs`); err != nil {
		return errors.Wrap(err, "failed to clear previous snapshot")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO beliefs (term, frequency, confidence, priority, durability, quality, evidence, creation_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare snapshot insert")
	}
	defer stmt.Close()

	for _, b := range beliefs {
		_, err := stmt.ExecContext(ctx,
			b.Term.String(),
			b.Truth.Frequency,
			b.Truth.Confidence,
			b.Budget.Priority,
			b.Budget.Durability,
			b.Budget.Quality,
			encodeEvidence(b.Stamp),
			int64(b.CreationTime),
		)
		if err != nil {
			return errors.Wrapf(err, "failed to store belief %s", b.Term)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit snapshot")
	}
	return nil
}

// LoadSnapshot feeds every stored belief into the engine through its
// normal insertion path. Evidential ids are preserved, and the engine's id
// allocator is advanced past them so fresh input cannot collide.
func (s *Store) LoadSnapshot(ctx context.Context, e *engine.Engine) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT term, frequency, confidence, priority, durability, quality, evidence, creation_time
		FROM beliefs ORDER BY id`)
	if err != nil {
		return 0, errors.Wrap(err, "failed to read snapshot")
	}
	defer rows.Close()

	p := parser.New(e.Factory())
	loaded := 0
	var maxID uint64
	for rows.Next() {
		var termText, evidence string
		var freq, conf, pri, dur, qual float64
		var creation int64
		if err := rows.Scan(&termText, &freq, &conf, &pri, &dur, &qual, &evidence, &creation); err != nil {
			return loaded, errors.Wrap(err, "failed to scan belief row")
		}

		res, err := p.Parse(termText + ".")
		if err != nil {
			return loaded, errors.Wrapf(err, "snapshot contains unparseable term %q", termText)
		}
		stamp, err := decodeEvidence(evidence)
		if err != nil {
			return loaded, errors.Wrapf(err, "snapshot contains bad evidence for %q", termText)
		}
		for _, id := range stamp.Evidence {
			if id > maxID {
				maxID = id
			}
		}

		v := truth.New(freq, conf)
		e.InputTask(&task.Task{
			Term:         res.Term,
			Punctuation:  task.Judgment,
			Truth:        &v,
			Budget:       task.NewBudget(pri, dur, qual),
			Stamp:        stamp,
			CreationTime: uint64(creation),
		})
		loaded++
	}
	if err := rows.Err(); err != nil {
		return loaded, errors.Wrap(err, "failed to iterate snapshot rows")
	}

	e.AdvanceSerial(maxID)
	return loaded, nil
}

// Count reports how many beliefs the snapshot holds.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beliefs`).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count snapshot beliefs")
	}
	return n, nil
}

func encodeEvidence(s task.Stamp) string {
	parts := make([]string, len(s.Evidence))
	for i, id := range s.Evidence {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

func decodeEvidence(text string) (task.Stamp, error) {
	if text == "" {
		return task.Stamp{}, nil
	}
	parts := strings.Split(text, ",")
	ids := make([]uint64, len(parts))
	for i, p := range parts {
		id, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return task.Stamp{}, errors.Wrapf(err, "bad evidence id %q", p)
		}
		ids[i] = id
	}
	return task.Stamp{Evidence: ids}, nil
}
