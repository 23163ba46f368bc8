package importer

import (
	"strconv"
	"strings"
	"time"

	"example.com/backstage/foodshare/internal/database"
	"example.com/backstage/foodshare/internal/models"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

type kind int

const (
	kindText kind = iota
	kindInteger
	kindReal
	kindDate
	kindTimestamp
)

func (k kind) String() string {
	switch k {
	case kindInteger:
		return "integer"
	case kindReal:
		return "real"
	case kindDate:
		return "date"
	case kindTimestamp:
		return "timestamp"
	default:
		return "text"
	}
}

// sqlType returns the column type used when creating the table
func (k kind) sqlType(dialect string) string {
	postgres := dialect == database.DialectPostgres
	switch k {
	case kindInteger:
		if postgres {
			return "BIGINT"
		}
		return "INTEGER"
	case kindReal:
		if postgres {
			return "DOUBLE PRECISION"
		}
		return "REAL"
	case kindDate:
		return "DATE"
	case kindTimestamp:
		if postgres {
			return "TIMESTAMPTZ"
		}
		return "DATETIME"
	default:
		return "TEXT"
	}
}

type column struct {
	Name string
	Kind kind
}

// coercedKind returns the kind forced on a column of a table regardless of
// its contents
func coercedKind(table, name string) (kind, bool) {
	switch {
	case table == models.TableFoodListings && name == "expiry_date":
		return kindDate, true
	case table == models.TableClaims && name == "timestamp":
		return kindTimestamp, true
	}
	return kindText, false
}

// inferKind picks the narrowest numeric kind that fits every non-empty
// value of a column, falling back to text
func inferKind(records [][]string, idx int) kind {
	k := kindInteger
	seen := false
	for _, record := range records {
		v := strings.TrimSpace(record[idx])
		if v == "" {
			continue
		}
		seen = true
		if k == kindInteger {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			k = kindReal
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return kindText
		}
	}
	if !seen {
		return kindText
	}
	return k
}

// convert turns a raw cell into the value stored for a column of kind k.
// Empty cells are stored as NULL, as are whitespace-only cells of typed
// columns. Text keeps the cell as written.
func convert(raw string, k kind) (interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	v := strings.TrimSpace(raw)
	if v == "" && k != kindText {
		return nil, nil
	}
	switch k {
	case kindInteger:
		return strconv.ParseInt(v, 10, 64)
	case kindReal:
		return strconv.ParseFloat(v, 64)
	case kindDate:
		t, err := parseTime(v)
		if err != nil {
			return nil, err
		}
		return models.DateOf(t), nil
	case kindTimestamp:
		return parseTime(v)
	default:
		return raw, nil
	}
}

func parseTime(v string) (time.Time, error) {
	if t, err := time.ParseInLocation(models.DateLayout, v, time.UTC); err == nil {
		return t, nil
	}
	t, err := dateparse.ParseLocal(v)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "cannot parse %q as a date", v)
	}
	return t, nil
}
