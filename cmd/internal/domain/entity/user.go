package entity

// User is the local profile of an identity provider account.
// ID is the provider-issued subject, so it is stable across logins.
type User struct {
	ID              string `gorm:"primaryKey"`
	Email           string `gorm:"not null;uniqueIndex:idx_users_email_lower,expression:LOWER(email)"`
	FullName        string `gorm:"not null"`
	PromoterCode    *string
	SurveyCompleted bool  `gorm:"not null;default:false"`
	CreatedAt       int64 `gorm:"not null;autoCreateTime:milli"`
	UpdatedAt       int64 `gorm:"not null;autoUpdateTime:milli"`
}
