package models

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// declaredColumns lists the columns each managed table is created with
var declaredColumns = map[string][]string{
	TableProviders:    {"provider_id", "name", "type", "address", "city", "contact"},
	TableReceivers:    {"receiver_id", "name", "type", "city", "contact"},
	TableFoodListings: {"food_id", "food_name", "quantity", "expiry_date", "provider_id", "provider_type", "location", "food_type", "meal_type"},
	TableClaims:       {"claim_id", "food_id", "receiver_id", "status", "timestamp"},
}

// DeclaredColumns returns the declared column names of a managed table
func DeclaredColumns(table string) []string {
	cols := declaredColumns[table]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// EnsureSchema creates every managed table that does not exist yet.
// Existing tables are never altered or dropped, whatever their columns.
func EnsureSchema(ctx context.Context, db *gorm.DB) error {
	migrator := db.WithContext(ctx).Migrator()
	for _, model := range All() {
		if migrator.HasTable(model) {
			continue
		}
		if err := migrator.CreateTable(model); err != nil {
			return errors.Wrapf(err, "failed to create table for %T", model)
		}
		log.Info().Str("table", model.(interface{ TableName() string }).TableName()).Msg("Created table")
	}
	return nil
}

// SchemaDrift describes how a stored table differs from its declared shape
type SchemaDrift struct {
	Table   string   `json:"table"`
	Exists  bool     `json:"exists"`
	Missing []string `json:"missing,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

// Consistent reports whether the table matches its declaration
func (d SchemaDrift) Consistent() bool {
	return d.Exists && len(d.Missing) == 0 && len(d.Extra) == 0
}

// CheckSchema compares the stored columns of a managed table with its
// declaration. Column names are compared case-insensitively.
func CheckSchema(ctx context.Context, db *gorm.DB, table string) (SchemaDrift, error) {
	declared, ok := declaredColumns[table]
	if !ok {
		return SchemaDrift{}, errors.Errorf("unknown table %q", table)
	}

	drift := SchemaDrift{Table: table}
	migrator := db.WithContext(ctx).Migrator()
	if !migrator.HasTable(table) {
		drift.Missing = DeclaredColumns(table)
		return drift, nil
	}
	drift.Exists = true

	columnTypes, err := migrator.ColumnTypes(table)
	if err != nil {
		return SchemaDrift{}, errors.Wrapf(err, "failed to read columns of %s", table)
	}

	stored := make(map[string]bool, len(columnTypes))
	for _, ct := range columnTypes {
		stored[strings.ToLower(ct.Name())] = true
	}

	want := make(map[string]bool, len(declared))
	for _, name := range declared {
		want[name] = true
		if !stored[name] {
			drift.Missing = append(drift.Missing, name)
		}
	}
	for name := range stored {
		if !want[name] {
			drift.Extra = append(drift.Extra, name)
		}
	}
	sort.Strings(drift.Extra)

	return drift, nil
}
