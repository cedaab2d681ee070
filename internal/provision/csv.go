// internal/provision/csv.go
package provision

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/quasarbase/quasar-backend/internal/core"
	"github.com/quasarbase/quasar-backend/internal/domain"
)

// ErrEmptyCSV is returned when the upload has no header row.
var ErrEmptyCSV = errors.New("csv file has no header row")

// InferColumnsFromCSV reads only the header row of a CSV stream and turns it
// into column descriptors. Every inferred column is TEXT; callers that want
// real types alter the table afterwards. Header cells are trimmed and spaces
// become underscores, but a cell that still fails column validation rejects
// the whole upload.
func InferColumnsFromCSV(r io.Reader) ([]domain.ColumnDescriptor, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyCSV
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	if len(header) == 0 {
		return nil, ErrEmptyCSV
	}

	cols := make([]domain.ColumnDescriptor, 0, len(header))
	for _, cell := range header {
		name := strings.ReplaceAll(strings.TrimSpace(cell), " ", "_")
		if !core.IsValidColumnName(name) {
			return nil, fmt.Errorf("%w: csv header '%s'", core.ErrInvalidIdentifier, cell)
		}
		cols = append(cols, domain.ColumnDescriptor{Name: name, Type: "TEXT"})
	}
	return cols, nil
}

// CreateTableFromCSV infers an all-TEXT schema from the upload's header row
// and provisions the table through the normal create path.
func (p *Provisioner) CreateTableFromCSV(ctx context.Context, db *domain.Database, tableName string, r io.Reader) (*domain.Table, error) {
	cols, err := InferColumnsFromCSV(r)
	if err != nil {
		return nil, err
	}
	return p.CreateTable(ctx, db, tableName, cols)
}
