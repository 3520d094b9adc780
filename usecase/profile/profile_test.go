package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository/memory"
)

func ptr[T any](v T) *T { return &v }

func TestRegister(t *testing.T) {
	db := memory.Open()
	uc := New(memory.NewUserRepository(db), nil, nil)
	ctx := context.Background()

	u, err := uc.Register(ctx, " ada ", "ada@example.edu", nil)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
	assert.True(t, u.NotificationsEnabled)

	quiet, err := uc.Register(ctx, "bob", "bob@example.edu", ptr(false))
	require.NoError(t, err)
	assert.False(t, quiet.NotificationsEnabled)

	_, err = uc.Register(ctx, "ada", "other@example.edu", nil)
	assert.ErrorIs(t, err, domain.ErrUserExists)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))

	_, err = uc.Register(ctx, "eve", "not-an-email", nil)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestUpdateProfile(t *testing.T) {
	db := memory.Open()
	uc := New(memory.NewUserRepository(db), nil, nil)
	ctx := context.Background()
	u, err := uc.Register(ctx, "ada", "ada@example.edu", nil)
	require.NoError(t, err)

	updated, err := uc.UpdateProfile(ctx, u.ID, Update{NotificationsEnabled: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.NotificationsEnabled)
	assert.Equal(t, "ada@example.edu", updated.Email)

	updated, err = uc.UpdateProfile(ctx, u.ID, Update{Email: ptr("ada@uni.example.edu")})
	require.NoError(t, err)
	assert.Equal(t, "ada@uni.example.edu", updated.Email)
	assert.False(t, updated.NotificationsEnabled)

	_, err = uc.UpdateProfile(ctx, u.ID, Update{Email: ptr("broken")})
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	_, err = uc.UpdateProfile(ctx, "missing", Update{})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestDeleteProfile_Cascades(t *testing.T) {
	db := memory.Open()
	users := memory.NewUserRepository(db)
	courses := memory.NewCourseRepository(db)
	uc := New(users, nil, nil)
	ctx := context.Background()

	u, err := uc.Register(ctx, "ada", "ada@example.edu", nil)
	require.NoError(t, err)
	_, err = courses.Create(ctx, &domain.Course{ID: "c1", UserID: u.ID, Name: "Physics"})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteProfile(ctx, u.ID))
	_, err = courses.GetByID(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrCourseNotFound)
	assert.ErrorIs(t, uc.DeleteProfile(ctx, u.ID), domain.ErrUserNotFound)
}
