package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"shelfaware/internal/models"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	ListByUser(ctx context.Context, userID string) ([]models.Product, error)
	ListExpired(ctx context.Context, userID string, now time.Time) ([]models.Product, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ListByUser(ctx context.Context, userID string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("expiry_date ASC NULLS LAST").
		Find(&products).Error
	return products, err
}

func (r *productRepository) ListExpired(ctx context.Context, userID string, now time.Time) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND expiry_date IS NOT NULL AND expiry_date < ?", userID, now).
		Order("expiry_date ASC").
		Find(&products).Error
	return products, err
}

// ListUserIDs returns every distinct product owner, for the background sweep.
func (r *productRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}
