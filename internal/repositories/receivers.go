package repositories

import (
	"context"

	"example.com/backstage/foodshare/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ReceiverFilter selects receivers by equality. Zero values are ignored.
type ReceiverFilter struct {
	ReceiverID int
	City       string
	Type       string
}

// ReceiverRepository defines the interface for receiver operations
type ReceiverRepository interface {
	// Create stores a receiver with the same append semantics as providers.
	Create(ctx context.Context, receiver *models.Receiver) error
	AppendOrInsert(ctx context.Context, receiver *models.Receiver) error
	Read(ctx context.Context, filter ReceiverFilter) ([]models.Receiver, error)
	Delete(ctx context.Context, receiverID int) (int64, error)
}

type receiverRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewReceiverRepository creates a new receiver repository
func NewReceiverRepository(db, readOnlyDB *gorm.DB) ReceiverRepository {
	return &receiverRepository{db: db, readOnlyDB: readOnlyDB}
}

func (r *receiverRepository) Create(ctx context.Context, receiver *models.Receiver) error {
	return r.AppendOrInsert(ctx, receiver)
}

func (r *receiverRepository) AppendOrInsert(ctx context.Context, receiver *models.Receiver) error {
	if err := r.db.WithContext(ctx).Create(receiver).Error; err != nil {
		return errors.Wrap(err, "failed to append receiver")
	}
	return nil
}

func (r *receiverRepository) Read(ctx context.Context, filter ReceiverFilter) ([]models.Receiver, error) {
	query := r.readOnlyDB.WithContext(ctx).Model(&models.Receiver{})
	if filter.ReceiverID != 0 {
		query = query.Where("receiver_id = ?", filter.ReceiverID)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}

	var receivers []models.Receiver
	if err := query.Order("receiver_id").Find(&receivers).Error; err != nil {
		return nil, errors.Wrap(err, "failed to read receivers")
	}
	return receivers, nil
}

func (r *receiverRepository) Delete(ctx context.Context, receiverID int) (int64, error) {
	result := r.db.WithContext(ctx).Where("receiver_id = ?", receiverID).Delete(&models.Receiver{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete receiver")
	}
	return result.RowsAffected, nil
}
