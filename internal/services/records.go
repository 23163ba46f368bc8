package services

import (
	"context"

	"example.com/backstage/foodshare/internal/messaging"
	"example.com/backstage/foodshare/internal/metrics"
	"example.com/backstage/foodshare/internal/models"
	"example.com/backstage/foodshare/internal/repositories"
	"example.com/backstage/foodshare/internal/search"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CreateProvider appends a provider row
func (s *DashboardService) CreateProvider(ctx context.Context, provider *models.Provider) error {
	if err := s.validate(provider); err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return err
	}

	txn := s.tracer.StartTransaction("create-provider")
	defer s.tracer.EndTransaction(txn)

	if err := s.providerRepo.AppendOrInsert(ctx, provider); err != nil {
		s.tracer.RecordError(txn, err)
		return s.writeFailed(err)
	}
	s.written(ctx, messaging.EventProviderCreated, provider)
	return nil
}

func (s *DashboardService) ListProviders(ctx context.Context, filter repositories.ProviderFilter) ([]models.Provider, error) {
	return s.providerRepo.Read(ctx, filter)
}

// DeleteProvider removes every provider row with the id
func (s *DashboardService) DeleteProvider(ctx context.Context, providerID int) (int64, error) {
	n, err := s.providerRepo.Delete(ctx, providerID)
	if err != nil {
		return 0, s.writeFailed(err)
	}
	if n > 0 {
		s.written(ctx, messaging.EventProviderDeleted, map[string]int{"Provider_ID": providerID})
	}
	return n, nil
}

// CreateReceiver appends a receiver row
func (s *DashboardService) CreateReceiver(ctx context.Context, receiver *models.Receiver) error {
	if err := s.validate(receiver); err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return err
	}

	txn := s.tracer.StartTransaction("create-receiver")
	defer s.tracer.EndTransaction(txn)

	if err := s.receiverRepo.AppendOrInsert(ctx, receiver); err != nil {
		s.tracer.RecordError(txn, err)
		return s.writeFailed(err)
	}
	s.written(ctx, messaging.EventReceiverCreated, receiver)
	return nil
}

func (s *DashboardService) ListReceivers(ctx context.Context, filter repositories.ReceiverFilter) ([]models.Receiver, error) {
	return s.receiverRepo.Read(ctx, filter)
}

func (s *DashboardService) DeleteReceiver(ctx context.Context, receiverID int) (int64, error) {
	n, err := s.receiverRepo.Delete(ctx, receiverID)
	if err != nil {
		return 0, s.writeFailed(err)
	}
	if n > 0 {
		s.written(ctx, messaging.EventReceiverDeleted, map[string]int{"Receiver_ID": receiverID})
	}
	return n, nil
}

// CreateListing inserts a listing, failing with ErrDuplicateKey when the
// Food_ID is taken
func (s *DashboardService) CreateListing(ctx context.Context, listing *models.FoodListing) error {
	if err := s.validate(listing); err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return err
	}

	txn := s.tracer.StartTransaction("create-listing")
	defer s.tracer.EndTransaction(txn)

	span := s.tracer.StartSpan("insert-listing", txn)
	err := s.listingRepo.InsertStrict(ctx, listing)
	span.End()
	if err != nil {
		s.tracer.RecordError(txn, err)
		return s.writeFailed(err)
	}

	s.written(ctx, messaging.EventListingCreated, listing)
	s.indexListing(ctx, listing)
	return nil
}

func (s *DashboardService) ListListings(ctx context.Context, filter repositories.FoodListingFilter) ([]models.FoodListing, error) {
	return s.listingRepo.Read(ctx, filter)
}

// UpdateListing changes the mutable listing fields. A missing id affects
// zero rows.
func (s *DashboardService) UpdateListing(ctx context.Context, foodID int, fields repositories.FoodListingUpdate) (int64, error) {
	if err := s.validate(fields); err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return 0, err
	}

	txn := s.tracer.StartTransaction("update-listing")
	defer s.tracer.EndTransaction(txn)

	n, err := s.listingRepo.Update(ctx, foodID, fields)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return 0, s.writeFailed(err)
	}
	if n == 0 {
		return 0, nil
	}

	s.written(ctx, messaging.EventListingUpdated, map[string]interface{}{
		"Food_ID":     foodID,
		"Quantity":    fields.Quantity,
		"Expiry_Date": fields.ExpiryDate,
		"Location":    fields.Location,
	})
	if s.index != nil {
		listings, err := s.listingRepo.Read(ctx, repositories.FoodListingFilter{FoodID: foodID})
		if err != nil {
			log.Warn().Err(err).Int("food_id", foodID).Msg("Failed to reload listing for indexing")
		}
		for i := range listings {
			s.indexListing(ctx, &listings[i])
		}
	}
	return n, nil
}

func (s *DashboardService) DeleteListing(ctx context.Context, foodID int) (int64, error) {
	n, err := s.listingRepo.Delete(ctx, foodID)
	if err != nil {
		return 0, s.writeFailed(err)
	}
	if n == 0 {
		return 0, nil
	}

	s.written(ctx, messaging.EventListingDeleted, map[string]int{"Food_ID": foodID})
	if s.index != nil {
		if err := s.index.DeleteListing(ctx, foodID); err != nil {
			log.Warn().Err(err).Int("food_id", foodID).Msg("Failed to remove listing from search index")
		}
	}
	return n, nil
}

// SearchListings runs a free-text query against the listing index
func (s *DashboardService) SearchListings(ctx context.Context, q string, size int) ([]search.ListingDocument, error) {
	if s.index == nil {
		return nil, ErrSearchDisabled
	}
	if q == "" {
		return nil, errors.Wrap(ErrValidation, "search query is required")
	}
	return s.index.SearchListings(ctx, q, size)
}

// CreateClaim inserts a claim, failing with ErrDuplicateKey when the
// Claim_ID is taken. A zero timestamp means now.
func (s *DashboardService) CreateClaim(ctx context.Context, claim *models.Claim) error {
	if claim.Timestamp.IsZero() {
		claim.Timestamp = s.now()
	}
	if err := s.validate(claim); err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return err
	}

	txn := s.tracer.StartTransaction("create-claim")
	defer s.tracer.EndTransaction(txn)

	if err := s.claimRepo.InsertStrict(ctx, claim); err != nil {
		s.tracer.RecordError(txn, err)
		return s.writeFailed(err)
	}
	s.written(ctx, messaging.EventClaimCreated, claim)
	return nil
}

func (s *DashboardService) ListClaims(ctx context.Context, filter repositories.ClaimFilter) ([]models.Claim, error) {
	return s.claimRepo.Read(ctx, filter)
}

// UpdateClaim changes a claim's status and timestamp. A zero timestamp
// means now.
func (s *DashboardService) UpdateClaim(ctx context.Context, claimID int, fields repositories.ClaimUpdate) (int64, error) {
	if fields.Timestamp.IsZero() {
		fields.Timestamp = s.now()
	}
	if err := s.validate(fields); err != nil {
		s.metrics.RecordError(metrics.ErrorTypeValidation)
		return 0, err
	}

	txn := s.tracer.StartTransaction("update-claim")
	defer s.tracer.EndTransaction(txn)

	n, err := s.claimRepo.Update(ctx, claimID, fields)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return 0, s.writeFailed(err)
	}
	if n > 0 {
		s.written(ctx, messaging.EventClaimStatusChanged, map[string]interface{}{
			"Claim_ID":  claimID,
			"Status":    fields.Status,
			"Timestamp": fields.Timestamp,
		})
	}
	return n, nil
}

func (s *DashboardService) DeleteClaim(ctx context.Context, claimID int) (int64, error) {
	n, err := s.claimRepo.Delete(ctx, claimID)
	if err != nil {
		return 0, s.writeFailed(err)
	}
	if n > 0 {
		s.written(ctx, messaging.EventClaimDeleted, map[string]int{"Claim_ID": claimID})
	}
	return n, nil
}

// written runs the follow-ups of a successful write
func (s *DashboardService) written(ctx context.Context, eventType string, payload interface{}) {
	s.metrics.IncrementCounter(metrics.CounterRecordsWritten, 1)
	s.invalidate(ctx)
	s.publish(ctx, eventType, payload)
}

func (s *DashboardService) writeFailed(err error) error {
	if !errors.Is(err, repositories.ErrDuplicateKey) {
		s.metrics.RecordError(metrics.ErrorTypeDatabase)
	}
	return err
}

func (s *DashboardService) indexListing(ctx context.Context, listing *models.FoodListing) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexListing(ctx, listing); err != nil {
		log.Warn().Err(err).Int("food_id", listing.FoodID).Msg("Failed to index listing")
	}
}
