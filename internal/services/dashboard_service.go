package services

import (
	"context"
	"sync/atomic"
	"time"

	"example.com/backstage/foodshare/config"
	"example.com/backstage/foodshare/internal/cache"
	"example.com/backstage/foodshare/internal/importer"
	"example.com/backstage/foodshare/internal/messaging"
	"example.com/backstage/foodshare/internal/metrics"
	"example.com/backstage/foodshare/internal/models"
	"example.com/backstage/foodshare/internal/reports"
	"example.com/backstage/foodshare/internal/repositories"
	"example.com/backstage/foodshare/internal/search"
	"example.com/backstage/foodshare/internal/tracing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ErrSearchDisabled is returned when no search index is configured
var ErrSearchDisabled = errors.New("listing search is disabled")

// ReportCache stores report results between writes
type ReportCache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Generation(ctx context.Context) (int64, error)
	BumpGeneration(ctx context.Context) error
}

// ListingIndex is the full-text search index over food listings
type ListingIndex interface {
	IndexListing(ctx context.Context, listing *models.FoodListing) error
	DeleteListing(ctx context.Context, foodID int) error
	ReplaceListings(ctx context.Context, listings []models.FoodListing) error
	SearchListings(ctx context.Context, q string, size int) ([]search.ListingDocument, error)
}

// UploadArchive keeps a copy of uploaded import files
type UploadArchive interface {
	Archive(ctx context.Context, name string, content []byte) (string, error)
}

// BulkLoader replaces table contents from files
type BulkLoader interface {
	Load(ctx context.Context, files ...importer.File) []importer.Result
}

// ReportRunner executes catalog reports
type ReportRunner interface {
	Run(ctx context.Context, id int, p reports.Params) (*reports.Table, error)
	Today() models.Date
}

// ReferenceCheck finds dangling foreign references
type ReferenceCheck interface {
	Check(ctx context.Context) (*repositories.ReferenceReport, error)
}

// DashboardService handles the dashboard's business logic
type DashboardService struct {
	providerRepo repositories.ProviderRepository
	receiverRepo repositories.ReceiverRepository
	listingRepo  repositories.FoodListingRepository
	claimRepo    repositories.ClaimRepository
	refs         ReferenceCheck
	schemaDB     *gorm.DB
	engine       ReportRunner
	loader       BulkLoader

	cache     ReportCache
	index     ListingIndex
	archive   UploadArchive
	publisher messaging.Publisher
	tracer    tracing.Tracer
	metrics   *metrics.MetricsCollector
	validator *validator.Validate

	cacheTTL time.Duration
	now      func() time.Time

	// set while a write could not bump the cache generation
	cacheSuspended atomic.Bool
}

// Option configures optional backends of the service
type Option func(*DashboardService)

// WithCache enables report result caching
func WithCache(c ReportCache) Option {
	return func(s *DashboardService) { s.cache = c }
}

// WithSearch enables the listing search index
func WithSearch(index ListingIndex) Option {
	return func(s *DashboardService) { s.index = index }
}

// WithArchive enables archiving of uploaded import files
func WithArchive(a UploadArchive) Option {
	return func(s *DashboardService) { s.archive = a }
}

// WithPublisher sets the domain event publisher
func WithPublisher(p messaging.Publisher) Option {
	return func(s *DashboardService) { s.publisher = p }
}

// WithReportClock sets the clock used for report dates and claim timestamps
func WithReportClock(clock func() time.Time) Option {
	return func(s *DashboardService) { s.now = clock }
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	db *gorm.DB,
	readOnlyDB *gorm.DB,
	cfg config.Config,
	collector *metrics.MetricsCollector,
	tracer tracing.Tracer,
	opts ...Option,
) *DashboardService {
	s := &DashboardService{
		providerRepo: repositories.NewProviderRepository(db, readOnlyDB),
		receiverRepo: repositories.NewReceiverRepository(db, readOnlyDB),
		listingRepo:  repositories.NewFoodListingRepository(db, readOnlyDB),
		claimRepo:    repositories.NewClaimRepository(db, readOnlyDB),
		refs:         repositories.NewReferenceChecker(readOnlyDB),
		schemaDB:     db,
		loader:       importer.NewLoader(db, cfg.Import),
		publisher:    messaging.NewLogPublisher(),
		tracer:       tracer,
		metrics:      collector,
		validator:    newValidator(),
		cacheTTL:     cfg.Reports.CacheTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tracer == nil {
		s.tracer = tracing.NewNoopTracer()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewMetricsCollector()
	}
	s.engine = reports.NewEngine(readOnlyDB, reports.WithClock(s.now))
	return s
}

// Catalog lists the available reports
func (s *DashboardService) Catalog() []reports.Definition {
	return reports.Catalog()
}

// RunReport runs a report, serving it from the cache when the data has not
// changed since it was stored
func (s *DashboardService) RunReport(ctx context.Context, id int, params reports.Params) (*reports.Table, error) {
	txn := s.tracer.StartTransaction("run-report")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "report_id", id)

	start := time.Now()
	key, cacheable := s.reportKey(ctx, id, params)
	if cacheable {
		var cached reports.Table
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			s.metrics.RecordReport(id, true, time.Since(start))
			return &cached, nil
		}
	}

	span := s.tracer.StartSpan("query-report", txn)
	table, err := s.engine.Run(ctx, id, params)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		if !errors.Is(err, reports.ErrUnknownReport) && !errors.Is(err, reports.ErrInvalidParameter) {
			s.metrics.RecordError(metrics.ErrorTypeDatabase)
		}
		return nil, err
	}
	s.metrics.RecordReport(id, false, time.Since(start))

	if cacheable {
		if err := s.cache.Set(ctx, key, table, s.cacheTTL); err != nil {
			log.Warn().Err(err).Int("report_id", id).Msg("Failed to cache report result")
		}
	}
	return table, nil
}

// reportKey builds the cache key of a report run. Cache errors disable
// caching for the call. After a failed invalidation nothing is cached until
// the generation is bumped again.
func (s *DashboardService) reportKey(ctx context.Context, id int, params reports.Params) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	if s.cacheSuspended.Load() {
		if err := s.cache.BumpGeneration(ctx); err != nil {
			return "", false
		}
		s.cacheSuspended.Store(false)
		log.Info().Msg("Report cache generation bumped, caching resumed")
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		return "", false
	}
	return cache.GetReportCacheKey(gen, id, s.engine.Today().String(), params.City, params.Days), true
}

// invalidate makes every cached report stale after a write
func (s *DashboardService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.BumpGeneration(ctx); err != nil {
		s.cacheSuspended.Store(true)
		log.Warn().Err(err).Msg("Failed to bump report cache generation, report caching suspended")
	}
}

// publish sends a domain event. Delivery failures never fail the write.
func (s *DashboardService) publish(ctx context.Context, eventType string, payload interface{}) {
	err := s.publisher.Publish(ctx, messaging.NewEvent(eventType, payload))
	s.metrics.RecordEvent(err == nil)
	if err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to publish event")
	}
}

// IntegrityReport combines the reference check with schema drift of every
// managed table
type IntegrityReport struct {
	References *repositories.ReferenceReport `json:"references"`
	Schema     []models.SchemaDrift          `json:"schema"`
}

// Consistent reports whether no problem was found
func (r *IntegrityReport) Consistent() bool {
	if r.References != nil && !r.References.Consistent() {
		return false
	}
	for _, d := range r.Schema {
		if !d.Consistent() {
			return false
		}
	}
	return true
}

// CheckIntegrity runs the explicit reference and schema checks
func (s *DashboardService) CheckIntegrity(ctx context.Context) (*IntegrityReport, error) {
	txn := s.tracer.StartTransaction("check-integrity")
	defer s.tracer.EndTransaction(txn)

	report := &IntegrityReport{}
	for _, table := range models.Tables() {
		drift, err := models.CheckSchema(ctx, s.schemaDB, table)
		if err != nil {
			s.tracer.RecordError(txn, err)
			return nil, errors.Wrapf(err, "failed to check schema of %s", table)
		}
		report.Schema = append(report.Schema, drift)
	}

	refs, err := s.refs.Check(ctx)
	if err != nil && !report.Consistent() {
		// Join columns may be missing from imported tables
		log.Warn().Err(err).Msg("Skipping reference check on drifted schema")
		return report, nil
	}
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, errors.Wrap(err, "failed to check references")
	}
	report.References = refs

	return report, nil
}
