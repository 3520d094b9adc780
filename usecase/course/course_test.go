package course

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/repository/memory"
)

func setup(t *testing.T) (*UseCase, *memory.DB) {
	t.Helper()
	db := memory.Open()
	users := memory.NewUserRepository(db)
	for _, id := range []string{"u1", "u2"} {
		_, err := users.Create(context.Background(), &domain.User{ID: id, Username: id, Email: id + "@example.edu"})
		require.NoError(t, err)
	}
	return New(memory.NewCourseRepository(db), nil, nil), db
}

func TestCreateAndListCourses(t *testing.T) {
	uc, _ := setup(t)
	ctx := context.Background()

	empty, err := uc.ListCourses(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = uc.CreateCourse(ctx, "u1", "  Physics ")
	require.NoError(t, err)
	_, err = uc.CreateCourse(ctx, "u1", "Algebra")
	require.NoError(t, err)
	_, err = uc.CreateCourse(ctx, "u1", "   ")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))

	courses, err := uc.ListCourses(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Algebra", courses[0].Name)
	assert.Equal(t, "Physics", courses[1].Name)
}

func TestDeleteCourse_OwnershipAndCascade(t *testing.T) {
	uc, db := setup(t)
	ctx := context.Background()
	tasks := memory.NewTaskRepository(db)

	c, err := uc.CreateCourse(ctx, "u1", "Physics")
	require.NoError(t, err)
	_, err = tasks.Create(ctx, &domain.Task{ID: "t1", CourseID: c.ID, Title: "Lab", DueDate: domain.NewDate(2024, 1, 2), Type: domain.TaskQuiz})
	require.NoError(t, err)

	assert.ErrorIs(t, uc.DeleteCourse(ctx, "u2", c.ID), domain.ErrForbidden)
	require.NoError(t, uc.DeleteCourse(ctx, "u1", c.ID))

	_, err = tasks.GetByID(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, uc.DeleteCourse(ctx, "u1", c.ID), domain.ErrCourseNotFound)
}
