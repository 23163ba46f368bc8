package database

import (
	"time"

	"example.com/backstage/foodshare/internal/metrics"

	"gorm.io/gorm"
)

const startTimeKey = "start_time"

// RegisterMetricsHooks registers GORM hooks for database metrics
func RegisterMetricsHooks(db *gorm.DB, collector *metrics.MetricsCollector) {
	record := func(queryType string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			collector.RecordDatabaseQuery(queryType, db.Error == nil, getDuration(db))
		}
	}

	db.Callback().Create().After("gorm:create").Register("metrics:create", record(metrics.DBQueryTypeInsert))
	db.Callback().Query().After("gorm:query").Register("metrics:query", record(metrics.DBQueryTypeSelect))
	db.Callback().Update().After("gorm:update").Register("metrics:update", record(metrics.DBQueryTypeUpdate))
	db.Callback().Delete().After("gorm:delete").Register("metrics:delete", record(metrics.DBQueryTypeDelete))
	// Raw().Scan and Raw().Rows run through the row callbacks
	db.Callback().Row().After("gorm:row").Register("metrics:row", record(metrics.DBQueryTypeSelect))
	db.Callback().Raw().After("gorm:raw").Register("metrics:raw", record(metrics.DBQueryTypeRaw))
}

// getDuration returns the time since the operation's start hook ran
func getDuration(db *gorm.DB) time.Duration {
	if start, ok := db.InstanceGet(startTimeKey); ok {
		return time.Since(start.(time.Time))
	}
	return 0
}

// LogDuration sets the start time of the database operation
func LogDuration(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

// RegisterDurationHooks adds a callback before database operations to set the start time
func RegisterDurationHooks(db *gorm.DB) {
	db.Callback().Create().Before("gorm:create").Register("duration:create", LogDuration)
	db.Callback().Query().Before("gorm:query").Register("duration:query", LogDuration)
	db.Callback().Update().Before("gorm:update").Register("duration:update", LogDuration)
	db.Callback().Delete().Before("gorm:delete").Register("duration:delete", LogDuration)
	db.Callback().Row().Before("gorm:row").Register("duration:row", LogDuration)
	db.Callback().Raw().Before("gorm:raw").Register("duration:raw", LogDuration)
}
