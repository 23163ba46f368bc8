package repositories

import (
	"context"

	"example.com/backstage/foodshare/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// FoodListingFilter selects listings by equality. City matches Location.
// Zero values are ignored.
type FoodListingFilter struct {
	FoodID     int
	ProviderID int
	City       string
	MealType   string
	FoodType   string
}

// FoodListingUpdate holds the only listing fields that may change
type FoodListingUpdate struct {
	Quantity   int         `json:"Quantity" validate:"gte=1"`
	ExpiryDate models.Date `json:"Expiry_Date" validate:"required"`
	Location   string      `json:"Location" validate:"max=50"`
}

// FoodListingRepository defines the interface for listing operations
type FoodListingRepository interface {
	// Create stores a listing and fails with ErrDuplicateKey if Food_ID exists.
	Create(ctx context.Context, listing *models.FoodListing) error
	InsertStrict(ctx context.Context, listing *models.FoodListing) error
	Read(ctx context.Context, filter FoodListingFilter) ([]models.FoodListing, error)
	Update(ctx context.Context, foodID int, fields FoodListingUpdate) (int64, error)
	Delete(ctx context.Context, foodID int) (int64, error)
}

type foodListingRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewFoodListingRepository creates a new listing repository
func NewFoodListingRepository(db, readOnlyDB *gorm.DB) FoodListingRepository {
	return &foodListingRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *foodListingRepository) Create(ctx context.Context, listing *models.FoodListing) error {
	return r.InsertStrict(ctx, listing)
}

// InsertStrict checks for the key inside the insert's transaction, so the
// check also holds for imported tables that carry no primary key.
func (r *foodListingRepository) InsertStrict(ctx context.Context, listing *models.FoodListing) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.FoodListing{}).Where("food_id = ?", listing.FoodID).Count(&count).Error; err != nil {
			return errors.Wrap(err, "failed to check food listing key")
		}
		if count > 0 {
			return ErrDuplicateKey
		}
		return tx.Create(listing).Error
	})
	return translateCreateError(err, "food listing")
}

func (r *foodListingRepository) Read(ctx context.Context, filter FoodListingFilter) ([]models.FoodListing, error) {
	query := r.readOnlyDB.WithContext(ctx).Model(&models.FoodListing{})
	if filter.FoodID != 0 {
		query = query.Where("food_id = ?", filter.FoodID)
	}
	if filter.ProviderID != 0 {
		query = query.Where("provider_id = ?", filter.ProviderID)
	}
	if filter.City != "" {
		query = query.Where("location = ?", filter.City)
	}
	if filter.MealType != "" {
		query = query.Where("meal_type = ?", filter.MealType)
	}
	if filter.FoodType != "" {
		query = query.Where("food_type = ?", filter.FoodType)
	}

	var listings []models.FoodListing
	if err := query.Order("food_id").Find(&listings).Error; err != nil {
		return nil, errors.Wrap(err, "failed to read food listings")
	}
	return listings, nil
}

// Update changes quantity, expiry and location. A missing id affects zero rows.
func (r *foodListingRepository) Update(ctx context.Context, foodID int, fields FoodListingUpdate) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.FoodListing{}).
		Where("food_id = ?", foodID).
		Updates(map[string]interface{}{
			"quantity":    fields.Quantity,
			"expiry_date": fields.ExpiryDate,
			"location":    fields.Location,
		})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to update food listing")
	}
	return result.RowsAffected, nil
}

func (r *foodListingRepository) Delete(ctx context.Context, foodID int) (int64, error) {
	result := r.db.WithContext(ctx).Where("food_id = ?", foodID).Delete(&models.FoodListing{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete food listing")
	}
	return result.RowsAffected, nil
}
