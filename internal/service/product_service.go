package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shelfaware/internal/dto"
	"shelfaware/internal/expiry"
	"shelfaware/internal/models"
	"shelfaware/internal/repository"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrProductNameRequired = errors.New("product name is required")
	ErrNegativeReminder    = errors.New("reminder days must not be negative")
)

type ProductService interface {
	Create(ctx context.Context, userID string, req dto.CreateProductRequest) (*models.Product, error)
	GetAll(ctx context.Context, userID string) ([]models.Product, error)
	GetByID(ctx context.Context, userID, id string) (*models.Product, error)
	GetExpired(ctx context.Context, userID string) ([]models.Product, error)
	Update(ctx context.Context, userID, id string, req dto.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, userID, id string) error
	ExtractDate(text string) (time.Time, bool)
}

type productService struct {
	repo repository.ProductRepository
}

func NewProductService(repo repository.ProductRepository) ProductService {
	return &productService{repo: repo}
}

func (s *productService) Create(ctx context.Context, userID string, req dto.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrProductNameRequired
	}
	if req.ReminderDays != nil && *req.ReminderDays < 0 {
		return nil, ErrNegativeReminder
	}

	product := &models.Product{
		UserID:     userID,
		Name:       name,
		Category:   req.Category,
		ExpiryDate: req.ExpiryDate,
	}
	if req.ReminderDays != nil {
		product.ReminderDays = *req.ReminderDays
	} else {
		product.ReminderDays = 3
	}

	// A scanned label seeds the expiry date when none was supplied. A failed
	// extraction leaves the date unset for the user to fill in by hand.
	if product.ExpiryDate == nil && req.ScanText != "" {
		if extracted, ok := expiry.ExtractExpiryDate(req.ScanText); ok {
			product.ExpiryDate = &extracted
		}
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) GetAll(ctx context.Context, userID string) ([]models.Product, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *productService) GetByID(ctx context.Context, userID, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrProductNotFound
	}
	if product.UserID != userID {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) GetExpired(ctx context.Context, userID string) ([]models.Product, error) {
	return s.repo.ListExpired(ctx, userID, time.Now())
}

func (s *productService) Update(ctx context.Context, userID, id string, req dto.UpdateProductRequest) (*models.Product, error) {
	product, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, ErrProductNameRequired
		}
		product.Name = name
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.ExpiryDate != nil {
		product.ExpiryDate = req.ExpiryDate
	}
	if req.ReminderDays != nil {
		if *req.ReminderDays < 0 {
			return nil, ErrNegativeReminder
		}
		product.ReminderDays = *req.ReminderDays
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.GetByID(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// ExtractDate exposes the label-text date extractor to the API surface.
func (s *productService) ExtractDate(text string) (time.Time, bool) {
	return expiry.ExtractExpiryDate(text)
}
