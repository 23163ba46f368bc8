package services

import (
	"context"

	"example.com/backstage/foodshare/internal/importer"
	"example.com/backstage/foodshare/internal/messaging"
	"example.com/backstage/foodshare/internal/models"
	"example.com/backstage/foodshare/internal/repositories"

	"github.com/rs/zerolog/log"
)

// ImportSummary is the payload of the import completed event
type ImportSummary struct {
	Files  int            `json:"files"`
	Loaded int            `json:"loaded"`
	Tables map[string]int `json:"tables"`
	Failed []string       `json:"failed,omitempty"`
	Keys   []string       `json:"archive_keys,omitempty"`
}

// Import archives the uploaded files and bulk loads them. Each file gets
// its own result; one file's failure does not affect the others.
func (s *DashboardService) Import(ctx context.Context, files ...importer.File) []importer.Result {
	txn := s.tracer.StartTransaction("import-files")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "files", len(files))

	summary := ImportSummary{Files: len(files), Tables: map[string]int{}}

	if s.archive != nil {
		span := s.tracer.StartSpan("archive-uploads", txn)
		for _, f := range files {
			key, err := s.archive.Archive(ctx, f.Name, f.Content)
			if err != nil {
				log.Warn().Err(err).Str("file", f.Name).Msg("Failed to archive import file")
				continue
			}
			summary.Keys = append(summary.Keys, key)
		}
		span.End()
	}

	span := s.tracer.StartSpan("load-files", txn)
	results := s.loader.Load(ctx, files...)
	span.End()

	listingsLoaded := false
	for _, r := range results {
		if r.Err != nil {
			s.metrics.RecordImport(r.Table, 0, false)
			s.tracer.RecordError(txn, r.Err)
			summary.Failed = append(summary.Failed, r.File)
			continue
		}
		s.metrics.RecordImport(r.Table, r.Rows, true)
		summary.Loaded++
		summary.Tables[r.Table] = r.Rows
		if r.Table == models.TableFoodListings {
			listingsLoaded = true
		}
	}

	if summary.Loaded == 0 {
		return results
	}

	s.invalidate(ctx)
	if listingsLoaded {
		s.reindexListings(ctx)
	}
	s.publish(ctx, messaging.EventImportCompleted, summary)
	return results
}

// reindexListings rebuilds the search index from storage
func (s *DashboardService) reindexListings(ctx context.Context) {
	if s.index == nil {
		return
	}
	listings, err := s.listingRepo.Read(ctx, repositories.FoodListingFilter{})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read listings for reindexing")
		return
	}
	if err := s.index.ReplaceListings(ctx, listings); err != nil {
		log.Warn().Err(err).Msg("Failed to reindex listings")
	}
}
