package entity

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID              int           `gorm:"primaryKey"`
	UserID          string        `gorm:"not null;index"` // References: users(id)
	CalendlyEventID string        `gorm:"not null;uniqueIndex"`
	ScheduledTime   int64         `gorm:"not null;index"`
	Status          BookingStatus `gorm:"not null"`
	CreatedAt       int64         `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt       int64         `gorm:"not null;autoUpdateTime:milli"`

	// Relations
	Owner *User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE"`
}
