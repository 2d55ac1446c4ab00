package repository

import (
	"coachportal/cmd/internal/domain/entity"
	"errors"

	"github.com/samber/mo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var calendlyEventIDConflict = []clause.Column{{Name: "calendly_event_id"}}

type DefaultBookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *DefaultBookingRepository {
	return &DefaultBookingRepository{db: db}
}

// FindByUserID returns the user's bookings, earliest first.
func (b *DefaultBookingRepository) FindByUserID(userID string) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	err := b.db.
		Where("user_id = ?", userID).
		Order("scheduled_time asc").
		Order("id asc").
		Find(&bookings).Error
	return bookings, err
}

func (b *DefaultBookingRepository) FindByCalendlyEventID(eventID string) (mo.Option[*entity.Booking], error) {
	var booking entity.Booking
	err := b.db.Where("calendly_event_id = ?", eventID).First(&booking).Error
	return optionOf(&booking, err)
}

// Upsert writes booking keyed by its CalendlyEventID. An existing row gets
// its owner, status and time overwritten; otherwise a new row is inserted.
// The insert itself carries ON CONFLICT DO UPDATE so that a concurrent
// writer that inserted the same event first is updated instead of duplicated.
// It reports whether the row was newly created and fills in booking's ID.
func (b *DefaultBookingRepository) Upsert(booking *entity.Booking) (bool, error) {
	created := false
	err := b.db.Transaction(func(tx *gorm.DB) error {
		var existing entity.Booking
		err := tx.Where("calendly_event_id = ?", booking.CalendlyEventID).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			created, err = b.insertOrUpdate(tx, booking)
			return err
		}
		if err != nil {
			return err
		}

		err = tx.Model(&existing).Updates(map[string]any{
			"user_id":        booking.UserID,
			"status":         booking.Status,
			"scheduled_time": booking.ScheduledTime,
		}).Error
		if err != nil {
			return err
		}

		booking.ID = existing.ID
		booking.CreatedAt = existing.CreatedAt
		booking.UpdatedAt = existing.UpdatedAt
		return nil
	})
	return created, err
}

// insertOrUpdate inserts booking, turning the insert into an update when a
// row for the same event appeared since it was looked up. The stored row
// decides whether it was created: a row that lost the race keeps its
// original created_at.
func (b *DefaultBookingRepository) insertOrUpdate(tx *gorm.DB, booking *entity.Booking) (bool, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   calendlyEventIDConflict,
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "status", "scheduled_time", "updated_at"}),
	}).Create(booking).Error
	if err != nil {
		return false, err
	}

	var stored entity.Booking
	err = tx.Where("calendly_event_id = ?", booking.CalendlyEventID).First(&stored).Error
	if err != nil {
		return false, err
	}

	created := stored.CreatedAt == booking.CreatedAt
	booking.ID = stored.ID
	booking.CreatedAt = stored.CreatedAt
	booking.UpdatedAt = stored.UpdatedAt
	return created, nil
}

// CreateIfAbsent inserts booking unless a row with the same CalendlyEventID
// already exists, in which case nothing is written and false is returned.
func (b *DefaultBookingRepository) CreateIfAbsent(booking *entity.Booking) (bool, error) {
	res := b.db.Clauses(clause.OnConflict{
		Columns:   calendlyEventIDConflict,
		DoNothing: true,
	}).Create(booking)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
