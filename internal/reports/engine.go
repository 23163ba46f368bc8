package reports

import (
	"context"
	"time"

	"example.com/backstage/foodshare/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Report engine errors
var (
	ErrUnknownReport    = errors.New("unknown report")
	ErrInvalidParameter = errors.New("invalid report parameter")
)

// Params carries the optional scalar inputs of a report
type Params struct {
	City string `json:"city,omitempty"`
	Days int    `json:"days,omitempty"`
}

// Table is a generic tabular report result
type Table struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// Engine runs the fixed reports against a read connection
type Engine struct {
	db    *gorm.DB
	clock func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock sets the clock used to determine today's date
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// NewEngine creates a new report engine
func NewEngine(readOnlyDB *gorm.DB, opts ...Option) *Engine {
	e := &Engine{db: readOnlyDB, clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Today returns the calendar date reports treat as today
func (e *Engine) Today() models.Date {
	return models.DateOf(e.clock())
}

// Run executes a report by id and returns its rows as a generic table
func (e *Engine) Run(ctx context.Context, id int, p Params) (*Table, error) {
	def, err := Lookup(id)
	if err != nil {
		return nil, err
	}
	args, skip, err := def.bind(e.Today(), p)
	if err != nil {
		return nil, err
	}

	table := &Table{Columns: append([]string(nil), def.Columns...), Rows: [][]interface{}{}}
	if skip {
		return table, nil
	}

	rows, err := e.db.WithContext(ctx).Raw(def.query, args...).Rows()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to run report %d", id)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read columns of report %d", id)
	}
	table.Columns = columns

	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrapf(err, "failed to scan report %d", id)
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to iterate report %d", id)
	}

	return table, nil
}

// scan executes a report into dest. It returns false without touching the
// database when the report's parameters make the result empty.
func (e *Engine) scan(ctx context.Context, id int, p Params, dest interface{}) (bool, error) {
	def, err := Lookup(id)
	if err != nil {
		return false, err
	}
	args, skip, err := def.bind(e.Today(), p)
	if err != nil {
		return false, err
	}
	if skip {
		return false, nil
	}
	if err := e.db.WithContext(ctx).Raw(def.query, args...).Scan(dest).Error; err != nil {
		return false, errors.Wrapf(err, "failed to run report %d", id)
	}
	return true, nil
}

// normalize converts driver values into JSON and terminal friendly forms
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(models.DateLayout)
		}
		return t.Format("2006-01-02 15:04:05")
	default:
		return v
	}
}
