package repositories

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DanglingReference is a row whose foreign-key-like column matches nothing
type DanglingReference struct {
	Table  string `json:"table"`
	Key    int    `json:"key"`
	Column string `json:"column"`
	Value  int    `json:"value"`
}

// ReferenceReport lists every dangling reference found by a check
type ReferenceReport struct {
	Dangling []DanglingReference `json:"dangling"`
}

// Consistent reports whether no dangling references were found
func (r ReferenceReport) Consistent() bool { return len(r.Dangling) == 0 }

// ReferenceChecker inspects the unenforced relationships between tables.
// It only reads; writes are never blocked on its findings.
type ReferenceChecker struct {
	readOnlyDB *gorm.DB
}

// NewReferenceChecker creates a new checker
func NewReferenceChecker(readOnlyDB *gorm.DB) *ReferenceChecker {
	return &ReferenceChecker{readOnlyDB: readOnlyDB}
}

type referenceCheck struct {
	table  string
	column string
	query  string
}

var referenceChecks = []referenceCheck{
	{
		table:  "food_listings",
		column: "provider_id",
		query: `SELECT fl.food_id AS row_key, fl.provider_id AS ref_value
FROM food_listings fl
LEFT JOIN providers p ON p.provider_id = fl.provider_id
WHERE p.provider_id IS NULL
ORDER BY fl.food_id`,
	},
	{
		table:  "claims",
		column: "food_id",
		query: `SELECT c.claim_id AS row_key, c.food_id AS ref_value
FROM claims c
LEFT JOIN food_listings fl ON fl.food_id = c.food_id
WHERE fl.food_id IS NULL
ORDER BY c.claim_id`,
	},
	{
		table:  "claims",
		column: "receiver_id",
		query: `SELECT c.claim_id AS row_key, c.receiver_id AS ref_value
FROM claims c
LEFT JOIN receivers r ON r.receiver_id = c.receiver_id
WHERE r.receiver_id IS NULL
ORDER BY c.claim_id`,
	},
}

// Check runs every reference check
func (c *ReferenceChecker) Check(ctx context.Context) (*ReferenceReport, error) {
	report := &ReferenceReport{Dangling: []DanglingReference{}}
	for _, check := range referenceChecks {
		var rows []struct {
			Key   int `gorm:"column:row_key"`
			Value int `gorm:"column:ref_value"`
		}
		if err := c.readOnlyDB.WithContext(ctx).Raw(check.query).Scan(&rows).Error; err != nil {
			return nil, errors.Wrapf(err, "failed to check %s.%s", check.table, check.column)
		}
		for _, row := range rows {
			report.Dangling = append(report.Dangling, DanglingReference{
				Table:  check.table,
				Key:    row.Key,
				Column: check.column,
				Value:  row.Value,
			})
		}
	}
	return report, nil
}
