package appointments

import (
	"context"
	"errors"
	"time"

	"consult-backend/internal/schedule"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository is the Postgres store. Bookings for one consultant are
// serialized with a transaction-scoped advisory lock keyed on the consultant.
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Book(ctx context.Context, a Appointment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", a.ConsultantID).Error; err != nil {
			return err
		}

		conflict, err := hasConflictTx(tx, a.ConsultantID, schedule.Interval{Start: a.AppointmentDate, End: a.EndsAt})
		if err != nil {
			return err
		}
		if conflict {
			return ErrSlotTaken
		}
		return tx.Create(&a).Error
	})
}

func (r *GormRepository) HasConflict(ctx context.Context, consultantID string, start, end time.Time) (bool, error) {
	return hasConflictTx(r.db.WithContext(ctx), consultantID, schedule.Interval{Start: start, End: end})
}

func activeOverlapScope(consultantID string, window schedule.Interval) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("consultant_id = ? AND status IN ? AND appointment_date < ? AND ends_at > ?",
			consultantID, activeStatusStrings(), window.End, window.Start)
	}
}

func hasConflictTx(tx *gorm.DB, consultantID string, window schedule.Interval) (bool, error) {
	var count int64
	err := tx.Model(&Appointment{}).
		Scopes(activeOverlapScope(consultantID, window)).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepository) Get(ctx context.Context, id string) (Appointment, error) {
	var a Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, err
	}
	return a, nil
}

func (r *GormRepository) Transition(ctx context.Context, id string, fn TransitionFunc) (Appointment, error) {
	var result Appointment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current Appointment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		next, err := fn(current)
		if err != nil {
			result = current
			return err
		}
		next.Version = current.Version + 1
		if err := tx.Save(&next).Error; err != nil {
			return err
		}
		result = next
		return nil
	})
	return result, err
}

func (r *GormRepository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	query := r.db.WithContext(ctx).Model(&Appointment{})
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.ConsultantID != "" {
		query = query.Where("consultant_id = ?", filter.ConsultantID)
	}
	if filter.UpcomingOnly {
		query = query.Where("appointment_date > ? AND status IN ?", filter.Now, activeStatusStrings())
	}

	items := make([]Appointment, 0)
	if err := query.Order("appointment_date ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepository) ActiveIntervals(ctx context.Context, consultantID string, window schedule.Interval) ([]schedule.Interval, error) {
	var items []Appointment
	err := r.db.WithContext(ctx).
		Scopes(activeOverlapScope(consultantID, window)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	intervals := make([]schedule.Interval, 0, len(items))
	for _, a := range items {
		intervals = append(intervals, a.Interval())
	}
	return intervals, nil
}

func (r *GormRepository) DueForCompletion(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	ids := make([]string, 0)
	err := r.db.WithContext(ctx).Model(&Appointment{}).
		Where("status = ? AND ends_at <= ?", string(StatusConfirmed), now).
		Order("ends_at ASC").
		Limit(int(limit)).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormRepository) Stats(ctx context.Context, consultantID string, from, to time.Time) (Stats, error) {
	var row struct {
		CompletedCount int64
		PaidFeesTotal  int64
	}
	err := r.db.WithContext(ctx).Model(&Appointment{}).
		Select("COUNT(*) AS completed_count, COALESCE(SUM(CASE WHEN payment_status = ? THEN fee ELSE 0 END), 0) AS paid_fees_total", string(PaymentPaid)).
		Where("consultant_id = ? AND status = ? AND appointment_date >= ? AND appointment_date < ?",
			consultantID, string(StatusCompleted), from, to).
		Scan(&row).Error
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		ConsultantID:   consultantID,
		From:           from,
		To:             to,
		CompletedCount: row.CompletedCount,
		PaidFeesTotal:  row.PaidFeesTotal,
	}, nil
}
