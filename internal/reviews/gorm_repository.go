package reviews

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// GormRepository expects a *gorm.DB opened with TranslateError so unique
// violations surface as gorm.ErrDuplicatedKey.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, review Review) error {
	if err := r.db.WithContext(ctx).Create(&review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (Review, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *GormRepository) GetByAppointment(ctx context.Context, appointmentID string) (Review, error) {
	return r.first(ctx, "appointment_id = ?", appointmentID)
}

func (r *GormRepository) first(ctx context.Context, query string, arg string) (Review, error) {
	var review Review
	if err := r.db.WithContext(ctx).First(&review, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Review{}, ErrNotFound
		}
		return Review{}, err
	}
	return review, nil
}

func (r *GormRepository) Update(ctx context.Context, review Review) error {
	res := r.db.WithContext(ctx).Model(&Review{}).Where("id = ?", review.ID).Updates(map[string]interface{}{
		"rating":     review.Rating,
		"comment":    review.Comment,
		"updated_at": review.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&Review{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) ListByConsultant(ctx context.Context, consultantID string, limit, offset int64) ([]Review, error) {
	items := make([]Review, 0)
	err := r.db.WithContext(ctx).
		Where("consultant_id = ?", consultantID).
		Order("created_at DESC").
		Limit(int(limit)).
		Offset(int(offset)).
		Find(&items).Error
	return items, err
}

func (r *GormRepository) Summary(ctx context.Context, consultantID string) (Summary, error) {
	var row struct {
		Average float64
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS count").
		Where("consultant_id = ?", consultantID).
		Scan(&row).Error
	if err != nil {
		return Summary{}, err
	}
	return Summary{ConsultantID: consultantID, Average: row.Average, Count: row.Count}, nil
}
