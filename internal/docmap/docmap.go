// Package docmap resolves internal document ids to the external names
// printed in result lines.
package docmap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/textio"
)

// Map holds one external name per internal document id.
type Map struct {
	names []string
}

func New(names []string) *Map {
	return &Map{names: names}
}

// Load reads one name per line; the name on line i belongs to document i.
func Load(path string) (*Map, error) {
	names, err := textio.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("loading document map: %w", err)
	}
	return New(names), nil
}

// LoadPostgres reads names from table, which must have a doc_id column
// numbering documents from zero without gaps and a name column.
func LoadPostgres(ctx context.Context, db *sql.DB, table string) (*Map, error) {
	query := fmt.Sprintf("SELECT doc_id, name FROM %s ORDER BY doc_id", pq.QuoteIdentifier(table))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying document map: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scanning document map row: %w", err)
		}
		if id != int64(len(names)) {
			return nil, apperrors.Newf(apperrors.ErrCorruptFile, apperrors.ExitSetup,
				"document map table %s: expected doc_id %d, got %d", table, len(names), id)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading document map: %w", err)
	}
	return New(names), nil
}

func (m *Map) Len() int { return len(m.names) }

// Name returns the external name of doc. doc must be below Len.
func (m *Map) Name(doc uint32) string { return m.names[doc] }

// Covers fails with ErrDocumentMapShort unless every id below numDocs has a
// name.
func (m *Map) Covers(numDocs uint32) error {
	if uint64(len(m.names)) < uint64(numDocs) {
		return apperrors.Newf(apperrors.ErrDocumentMapShort, apperrors.ExitSetup,
			"%d names for %d documents", len(m.names), numDocs)
	}
	return nil
}
