package repositories

import (
	"context"

	"example.com/backstage/foodshare/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ProviderFilter selects providers by equality. Zero values are ignored.
type ProviderFilter struct {
	ProviderID int
	City       string
	Type       string
}

// ProviderRepository defines the interface for provider operations
type ProviderRepository interface {
	// Create stores a provider. Providers are append-only: an existing
	// Provider_ID gets a second row.
	Create(ctx context.Context, provider *models.Provider) error
	AppendOrInsert(ctx context.Context, provider *models.Provider) error
	Read(ctx context.Context, filter ProviderFilter) ([]models.Provider, error)
	Delete(ctx context.Context, providerID int) (int64, error)
}

type providerRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db, readOnlyDB *gorm.DB) ProviderRepository {
	return &providerRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *providerRepository) Create(ctx context.Context, provider *models.Provider) error {
	return r.AppendOrInsert(ctx, provider)
}

// AppendOrInsert inserts the row without any uniqueness check
func (r *providerRepository) AppendOrInsert(ctx context.Context, provider *models.Provider) error {
	if err := r.db.WithContext(ctx).Create(provider).Error; err != nil {
		return errors.Wrap(err, "failed to append provider")
	}
	return nil
}

func (r *providerRepository) Read(ctx context.Context, filter ProviderFilter) ([]models.Provider, error) {
	query := r.readOnlyDB.WithContext(ctx).Model(&models.Provider{})
	if filter.ProviderID != 0 {
		query = query.Where("provider_id = ?", filter.ProviderID)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var providers []models.Provider
	if err := query.Order("provider_id").Find(&providers).Error; err != nil {
		return nil, errors.Wrap(err, "failed to read providers")
	}
	return providers, nil
}

// Delete removes every row with the id and returns how many went
func (r *providerRepository) Delete(ctx context.Context, providerID int) (int64, error) {
	result := r.db.WithContext(ctx).Where("provider_id = ?", providerID).Delete(&models.Provider{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete provider")
	}
	return result.RowsAffected, nil
}
