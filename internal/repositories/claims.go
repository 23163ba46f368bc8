package repositories

import (
	"context"
	"time"

	"example.com/backstage/foodshare/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ClaimFilter selects claims by equality. Zero values are ignored.
type ClaimFilter struct {
	ClaimID    int
	FoodID     int
	ReceiverID int
	Status     string
}

// ClaimUpdate holds the only claim fields that may change
type ClaimUpdate struct {
	Status    string    `json:"Status" validate:"oneof=Pending Completed Cancelled"`
	Timestamp time.Time `json:"Timestamp"`
}

// ClaimRepository defines the interface for claim operations
type ClaimRepository interface {
	// Create stores a claim and fails with ErrDuplicateKey if Claim_ID exists.
	Create(ctx context.Context, claim *models.Claim) error
	InsertStrict(ctx context.Context, claim *models.Claim) error
	Read(ctx context.Context, filter ClaimFilter) ([]models.Claim, error)
	Update(ctx context.Context, claimID int, fields ClaimUpdate) (int64, error)
	Delete(ctx context.Context, claimID int) (int64, error)
}

type claimRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db, readOnlyDB *gorm.DB) ClaimRepository {
	return &claimRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *claimRepository) Create(ctx context.Context, claim *models.Claim) error {
	return r.InsertStrict(ctx, claim)
}

func (r *claimRepository) InsertStrict(ctx context.Context, claim *models.Claim) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Claim{}).Where("claim_id = ?", claim.ClaimID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "failed to check claim key")
		}
		if count > 0 {
			return ErrDuplicateKey
		}
		return tx.Create(claim).Error
	})
	return translateCreateError(err, "claim")
}

func (r *claimRepository) Read(ctx context.Context, filter ClaimFilter) ([]models.Claim, error) {
	query := r.readOnlyDB.WithContext(ctx).Model(&models.Claim{})
	if filter.ClaimID != 0 {
		query = query.Where("claim_id = ?", filter.ClaimID)
	}
	if filter.FoodID != 0 {
		query = query.Where("food_id = ?", filter.FoodID)
	}
	if filter.ReceiverID != 0 {
		query = query.Where("receiver_id = ?", filter.ReceiverID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var claims []models.Claim
	if err := query.Order("claim_id").Find(&claims).Error; err != nil {
		return nil, errors.Wrap(err, "failed to read claims")
	}
	return claims, nil
}

// Update sets status and timestamp. A missing id affects zero rows.
func (r *claimRepository) Update(ctx context.Context, claimID int, fields ClaimUpdate) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("claim_id = ?", claimID).
		Updates(map[string]interface{}{
			"status":    fields.Status,
			"timestamp": fields.Timestamp,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to update claim")
	}
	return result.RowsAffected, nil
}

func (r *claimRepository) Delete(ctx context.Context, claimID int) (int64, error) {
	result := r.db.WithContext(ctx).Where("claim_id = ?", claimID).Delete(&models.Claim{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete claim")
	}
	return result.RowsAffected, nil
}
