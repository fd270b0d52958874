package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"convert-gateway/vars"
)

var ErrNotFound = errors.New("conversion not found")

// ConversionRepo wraps every query on the conversions table.
type ConversionRepo struct {
	db *gorm.DB
}

func NewConversionRepo(db *gorm.DB) *ConversionRepo {
	return &ConversionRepo{db: db}
}

// Create inserts a new pending record.
func (r *ConversionRepo) Create(ctx context.Context, c *Conversion) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// GetByID returns ErrNotFound for unknown ids.
func (r *ConversionRepo) GetByID(ctx context.Context, id string) (*Conversion, error) {
	var c Conversion
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Finish stores the outcome of a conversion. errKind and detail are empty on success.
func (r *ConversionRepo) Finish(ctx context.Context, id, status, errKind, detail string, elapsed time.Duration) error {
	result := r.db.WithContext(ctx).
		Model(&Conversion{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":       status,
			"error_kind":   errKind,
			"error_detail": detail,
			"duration_ms":  elapsed.Milliseconds(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecent returns the newest records first.
func (r *ConversionRepo) ListRecent(ctx context.Context, limit int) ([]Conversion, error) {
	var results []Conversion
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error
	return results, err
}

// ExpireConversions marks the given ids expired after their scratch files were swept.
func (r *ConversionRepo) ExpireConversions(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&Conversion{}).
		Where("id IN ? AND status <> ?", ids, vars.StatusExpired).
		Update("status", vars.StatusExpired)
	return result.RowsAffected, result.Error
}
