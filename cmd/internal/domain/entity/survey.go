package entity

// Survey is one onboarding questionnaire submission. Users may submit
// more than once; every submission is kept. Nil fields were not answered.
type Survey struct {
	ID               int    `gorm:"primaryKey"`
	UserID           string `gorm:"not null;index"` // References: users(id)
	FullName         *string
	Email            *string
	AgeRange         *string
	Country          *string
	LinkedinProfile  *string
	BestDescribesYou *string
	Industry         *string
	JobRole          *string
	YearsExperience  *string
	HowDidYouHear    *string
	ReferralName     *string

	// Columns from the first questionnaire revision
	Goals           *string
	Challenges      *string
	ExperienceLevel *string
	AdditionalNotes *string

	CreatedAt int64 `gorm:"not null;autoCreateTime:milli"`

	// Relations
	Owner *User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE"`
}
