// Package importer implements the raw bulk import path. Each recognized
// file replaces the whole content of its target table with a schema
// derived from the file itself.
package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"example.com/backstage/foodshare/config"
	"example.com/backstage/foodshare/internal/database"
	"example.com/backstage/foodshare/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Import errors
var (
	ErrUnrecognizedInput = errors.New("unrecognized file")
	ErrMalformedData     = errors.New("malformed data")
)

const (
	defaultWorkers   = 4
	defaultBatchSize = 500
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var utf8BOM = []byte("\xef\xbb\xbf")

// File is one uploaded tabular file
type File struct {
	Name    string
	Content []byte
}

// Result reports the outcome of loading one file
type Result struct {
	File        string              `json:"file"`
	Table       string              `json:"table,omitempty"`
	Rows        int                 `json:"rows"`
	Columns     int                 `json:"columns"`
	Err         error               `json:"-"`
	Error       string              `json:"error,omitempty"`
	SchemaDrift *models.SchemaDrift `json:"schema_drift,omitempty"`
}

// OK reports whether the file was loaded
func (r Result) OK() bool { return r.Err == nil }

// Shape returns the loaded shape as (rows, columns)
func (r Result) Shape() string { return fmt.Sprintf("(%d, %d)", r.Rows, r.Columns) }

func (r *Result) fail(err error) {
	r.Err = err
	r.Error = err.Error()
}

// Route maps a file name to its target table. Rules are applied in order
// and the first match wins.
func Route(name string) (string, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "providers"):
		return models.TableProviders, nil
	case strings.Contains(lower, "receivers"):
		return models.TableReceivers, nil
	case strings.Contains(lower, "food") && strings.Contains(lower, "list"):
		return models.TableFoodListings, nil
	case strings.Contains(lower, "claim"):
		return models.TableClaims, nil
	default:
		return "", errors.Wrapf(ErrUnrecognizedInput, "%s", name)
	}
}

// parsed is a file ready to be written
type parsed struct {
	table   string
	columns []column
	rows    []map[string]interface{}
}

// Loader replaces table contents from uploaded files
type Loader struct {
	db        *gorm.DB
	workers   int
	batchSize int
}

// NewLoader creates a loader writing through db
func NewLoader(db *gorm.DB, cfg config.ImportConfig) *Loader {
	l := &Loader{db: db, workers: cfg.Workers, batchSize: cfg.BatchSize}
	if l.workers <= 0 {
		l.workers = defaultWorkers
	}
	if l.batchSize <= 0 {
		l.batchSize = defaultBatchSize
	}
	return l
}

// Load imports every file and returns one result per file, in input order.
// Files are parsed concurrently and written one at a time, each in its own
// transaction, so a failing file never affects the others.
func (l *Loader) Load(ctx context.Context, files ...File) []Result {
	results := make([]Result, len(files))
	batches := make([]*parsed, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, f := range files {
		i, f := i, f
		results[i].File = f.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].fail(err)
				return nil
			}
			p, err := parse(f)
			if err != nil {
				results[i].fail(err)
				return nil
			}
			batches[i] = p
			return nil
		})
	}
	_ = g.Wait()

	for i, p := range batches {
		if p == nil {
			if results[i].Err == nil {
				results[i].fail(errors.New("file was not parsed"))
			}
			if errors.Is(results[i].Err, ErrUnrecognizedInput) {
				log.Warn().Str("file", files[i].Name).Msg("Unknown CSV")
			} else {
				log.Error().Err(results[i].Err).Str("file", files[i].Name).Msg("Failed to parse import file")
			}
			continue
		}
		results[i].Table = p.table
		results[i].Columns = len(p.columns)

		start := time.Now()
		if err := l.write(ctx, p); err != nil {
			results[i].fail(err)
			log.Error().Err(err).Str("file", files[i].Name).Str("table", p.table).Msg("Failed to load import file")
			continue
		}
		results[i].Rows = len(p.rows)

		drift, err := models.CheckSchema(ctx, l.db, p.table)
		if err != nil {
			log.Warn().Err(err).Str("table", p.table).Msg("Failed to check schema after import")
		} else {
			results[i].SchemaDrift = &drift
			if !drift.Consistent() {
				log.Warn().
					Str("table", p.table).
					Strs("missing", drift.Missing).
					Strs("extra", drift.Extra).
					Msg("Imported table differs from declared schema")
			}
		}

		log.Info().
			Str("file", files[i].Name).
			Str("table", p.table).
			Str("shape", results[i].Shape()).
			Dur("duration", time.Since(start)).
			Msg("Loaded import file")
	}

	return results
}

// write replaces the target table inside one transaction
func (l *Loader) write(ctx context.Context, p *parsed) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		migrator := tx.Migrator()
		if migrator.HasTable(p.table) {
			if err := migrator.DropTable(p.table); err != nil {
				return errors.Wrapf(err, "failed to drop %s", p.table)
			}
		}

		if err := tx.Exec(createStatement(tx, p)).Error; err != nil {
			return errors.Wrapf(err, "failed to create %s", p.table)
		}

		if len(p.rows) == 0 {
			return nil
		}
		if err := tx.Table(p.table).CreateInBatches(p.rows, l.batchSize).Error; err != nil {
			return errors.Wrapf(err, "failed to insert rows into %s", p.table)
		}
		return nil
	})
}

func createStatement(tx *gorm.DB, p *parsed) string {
	dialect := database.Dialect(tx)
	defs := make([]string, len(p.columns))
	for i, c := range p.columns {
		defs[i] = tx.Statement.Quote(c.Name) + " " + c.Kind.sqlType(dialect)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", tx.Statement.Quote(p.table), strings.Join(defs, ", "))
}

// parse routes and decodes a file. Line numbers in errors count the header
// as line 1.
func parse(f File) (*parsed, error) {
	table, err := Route(f.Name)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(f.Content, utf8BOM)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrapf(ErrMalformedData, "%s: missing header row", f.Name)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedData, "%s: %v", f.Name, err)
	}

	names, err := headerNames(header)
	if err != nil {
		return nil, errors.Wrapf(ErrMalformedData, "%s: %v", f.Name, err)
	}

	var records [][]string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedData, "%s: %v", f.Name, err)
		}
		if len(record) != len(names) {
			return nil, errors.Wrapf(ErrMalformedData, "%s: line %d has %d fields, expected %d",
				f.Name, line, len(record), len(names))
		}
		records = append(records, record)
	}

	columns := make([]column, len(names))
	for i, name := range names {
		k, forced := coercedKind(table, name)
		if !forced {
			k = inferKind(records, i)
		}
		columns[i] = column{Name: name, Kind: k}
	}

	rows := make([]map[string]interface{}, 0, len(records))
	for n, record := range records {
		row := make(map[string]interface{}, len(columns))
		for i, c := range columns {
			v, err := convert(record[i], c.Kind)
			if err != nil {
				return nil, errors.Wrapf(ErrMalformedData, "%s: line %d column %s: %v", f.Name, n+2, c.Name, err)
			}
			row[c.Name] = v
		}
		rows = append(rows, row)
	}

	return &parsed{table: table, columns: columns, rows: rows}, nil
}

// headerNames validates the header and returns the lowercased column names
func headerNames(header []string) ([]string, error) {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if !identifier.MatchString(h) {
			return nil, errors.Errorf("invalid column name %q", h)
		}
		name := strings.ToLower(h)
		if seen[name] {
			return nil, errors.Errorf("duplicate column %q", h)
		}
		seen[name] = true
		names[i] = name
	}
	return names, nil
}
