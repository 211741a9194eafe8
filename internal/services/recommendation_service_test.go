package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/mentora-service/internal/models"
)

func TestRecommendationService_InterestsFirstThenPopular(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := env.newUser(t, models.RoleTeacher)
	student := env.newUser(t, models.RoleStudent, "go", "databases")

	goCourse := env.publishedCourse(t, teacher, "Go", []string{"go"}, "One")
	dbCourse := env.publishedCourse(t, teacher, "SQL", []string{"databases", "go"}, "One")
	art := env.publishedCourse(t, teacher, "Art", []string{"art"}, "One")
	music := env.publishedCourse(t, teacher, "Music", []string{"music"}, "One")
	_, err := env.courses.Create(ctx, teacher, courseRequest("Hidden", []string{"go"}, "One"))
	require.NoError(t, err)

	// Music is the most enrolled among the non-matching courses
	for i := 0; i < 2; i++ {
		_, err := env.enrollments.Enroll(ctx, env.newUser(t, models.RoleStudent), music.ID)
		require.NoError(t, err)
	}

	recs, err := env.recommendation.ListRecommended(ctx, student)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
		assert.Equal(t, models.CourseStatusPublished, r.Status)
		assert.Equal(t, teacher.FullName, r.TeacherName)
	}
	assert.ElementsMatch(t, []string{goCourse.ID, dbCourse.ID}, ids[:2])
	assert.Equal(t, []string{music.ID, art.ID}, ids[2:])
}

func TestRecommendationService_CapsAtLimitWithoutDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := env.newUser(t, models.RoleTeacher)
	student := env.newUser(t, models.RoleStudent, "go")

	for i := 0; i < 8; i++ {
		env.publishedCourse(t, teacher, fmt.Sprintf("Go %d", i), []string{"go"}, "One")
	}
	for i := 0; i < 6; i++ {
		env.publishedCourse(t, teacher, fmt.Sprintf("Other %d", i), []string{"other"}, "One")
	}

	recs, err := env.recommendation.ListRecommended(ctx, student)
	require.NoError(t, err)
	require.Len(t, recs, RecommendationLimit)

	seen := map[string]bool{}
	matched := 0
	for _, r := range recs {
		assert.False(t, seen[r.ID], "duplicate %s", r.ID)
		seen[r.ID] = true
		if len(r.Tags) > 0 && r.Tags[0] == "go" {
			matched++
		}
	}
	assert.Equal(t, 8, matched)
}

func TestRecommendationService_NoInterestsFallsBackToPopular(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	teacher := env.newUser(t, models.RoleTeacher)
	student := env.newUser(t, models.RoleStudent)

	empty, err := env.recommendation.ListRecommended(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, empty)

	quiet := env.publishedCourse(t, teacher, "Quiet", []string{"a"}, "One")
	busy := env.publishedCourse(t, teacher, "Busy", []string{"b"}, "One")
	_, err = env.enrollments.Enroll(ctx, env.newUser(t, models.RoleStudent), busy.ID)
	require.NoError(t, err)

	recs, err := env.recommendation.ListRecommended(ctx, student)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, busy.ID, recs[0].ID)
	assert.Equal(t, quiet.ID, recs[1].ID)
}

func TestRecommendationService_StudentsOnly(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.newUser(t, models.RoleTeacher)

	_, err := env.recommendation.ListRecommended(context.Background(), teacher)
	assert.True(t, IsPermissionError(err))
}
