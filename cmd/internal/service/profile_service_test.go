package service

import (
	"coachportal/cmd/internal/domain/entity"
	"errors"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyUsers fails every call with err, except that the n-th FindByID
// (1-based) returns the user in found.
type flakyUsers struct {
	err       error
	foundOn   int
	found     *entity.User
	findCalls int
	created   int
}

func (f *flakyUsers) FindByID(string) (mo.Option[*entity.User], error) {
	f.findCalls++
	if f.findCalls == f.foundOn {
		return mo.Some(f.found), nil
	}
	return mo.None[*entity.User](), f.err
}

func (f *flakyUsers) FindByEmail(string) (mo.Option[*entity.User], error) {
	return mo.None[*entity.User](), f.err
}

func (f *flakyUsers) Create(*entity.User) error {
	f.created++
	return f.err
}

func (f *flakyUsers) MarkSurveyCompleted(string) error {
	return f.err
}

func (f *flakyUsers) Relink(string, string, string) error {
	return f.err
}

func TestEnsureProfile_ReturnsExistingRow(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "sub-1", "ada@example.com")

	user := newProfiles(db).EnsureProfile("sub-1", "other@example.com", ProfileDefaults{FullName: "ignored"})
	assert.Equal(t, "Seeded", user.FullName)
	assert.Equal(t, "ada@example.com", user.Email)
}

func TestEnsureProfile_IsIdempotent(t *testing.T) {
	db := newTestDB(t)
	profiles := newProfiles(db)

	first := profiles.EnsureProfile("sub-1", "ada@example.com", ProfileDefaults{FullName: "Ada", PromoterCode: "P1"})
	second := profiles.EnsureProfile("sub-1", "ada@example.com", ProfileDefaults{FullName: "Someone else"})

	assert.Equal(t, "Ada", first.FullName)
	assert.Equal(t, "Ada", second.FullName)

	var count int64
	require.NoError(t, db.Model(&entity.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureProfile_RereadsAfterLostInsertRace(t *testing.T) {
	winner := &entity.User{ID: "sub-1", Email: "ada@example.com", FullName: "Winner"}
	users := &flakyUsers{err: errors.New("UNIQUE constraint failed"), foundOn: 2, found: winner}

	user := NewProfileService(users).EnsureProfile("sub-1", "ada@example.com", ProfileDefaults{FullName: "Loser"})
	assert.Same(t, winner, user)
	assert.Equal(t, 1, users.created)
}

func TestEnsureProfile_FallsBackWhenStoreIsDown(t *testing.T) {
	users := &flakyUsers{err: errors.New("database is locked")}

	user := NewProfileService(users).EnsureProfile("sub-1", "ada@example.com", ProfileDefaults{FullName: "ada", PromoterCode: "P1"})
	require.NotNil(t, user)
	assert.Equal(t, "sub-1", user.ID)
	assert.Equal(t, "ada", user.FullName)
	assert.False(t, user.SurveyCompleted)
	require.NotNil(t, user.PromoterCode)
	assert.Equal(t, "P1", *user.PromoterCode)
}

func TestEnsureProfile_RelinksProfileOfRecreatedAccount(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "sub-old", "Ada@Example.com")
	require.NoError(t, db.Create(&entity.Booking{
		UserID: "sub-old", CalendlyEventID: "inv-1", ScheduledTime: 1000, Status: entity.BookingConfirmed,
	}).Error)
	require.NoError(t, db.Create(&entity.Survey{UserID: "sub-old"}).Error)

	user := newProfiles(db).EnsureProfile("sub-new", "ada@example.com", ProfileDefaults{FullName: "ada"})
	require.NotNil(t, user)
	assert.Equal(t, "sub-new", user.ID)
	assert.Equal(t, "Seeded", user.FullName)
	assert.Equal(t, "ada@example.com", user.Email)

	var users int64
	require.NoError(t, db.Model(&entity.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)

	var booking entity.Booking
	require.NoError(t, db.Where("calendly_event_id = ?", "inv-1").First(&booking).Error)
	assert.Equal(t, "sub-new", booking.UserID)

	var survey entity.Survey
	require.NoError(t, db.First(&survey).Error)
	assert.Equal(t, "sub-new", survey.UserID)

	again := newProfiles(db).EnsureProfile("sub-new", "ada@example.com", ProfileDefaults{})
	assert.Equal(t, "sub-new", again.ID)
}

func TestFindUserByEmail(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "sub-1", "Ada@Example.com")

	found, err := newProfiles(db).FindUserByEmail("ada@example.com")
	require.NoError(t, err)
	require.True(t, found.IsPresent())
	assert.Equal(t, "sub-1", found.MustGet().ID)
}
