package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhelper/studyhelper/internal/domain"
	"github.com/studyhelper/studyhelper/internal/platform/memory"
)

func TestSeedStarterData(t *testing.T) {
	ctx := context.Background()

	t.Run("fills an empty store", func(t *testing.T) {
		st := memory.New()

		seeded, err := SeedStarterData(ctx, st, nil)
		require.NoError(t, err)
		assert.True(t, seeded)

		subjects, err := st.Subjects().List(ctx, domain.SortAlphabetic)
		require.NoError(t, err)
		assert.Equal(t, []string{"Computing", "History", "Math"}, texts(subjects))

		math, err := st.Subjects().GetByText(ctx, "Math")
		require.NoError(t, err)
		questions, err := st.Questions().ListBySubject(ctx, math.ID)
		require.NoError(t, err)
		require.Len(t, questions, 2)
		assert.Equal(t, "What is 2 + 3?", questions[0].Text)
		assert.Equal(t, "2 + 3 = 5", questions[0].Answer)

		computing, err := st.Subjects().GetByText(ctx, "Computing")
		require.NoError(t, err)
		questions, err = st.Questions().ListBySubject(ctx, computing.ID)
		require.NoError(t, err)
		assert.Empty(t, questions)
	})

	t.Run("leaves a populated store alone", func(t *testing.T) {
		st := memory.New()
		seedSubject(t, st, "Mine")

		seeded, err := SeedStarterData(ctx, st, nil)
		require.NoError(t, err)
		assert.False(t, seeded)

		subjects, err := st.Subjects().List(ctx, domain.SortAlphabetic)
		require.NoError(t, err)
		assert.Equal(t, []string{"Mine"}, texts(subjects))
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		st := memory.New()
		_, err := SeedStarterData(ctx, st, nil)
		require.NoError(t, err)

		seeded, err := SeedStarterData(ctx, st, nil)
		require.NoError(t, err)
		assert.False(t, seeded)
	})

	t.Run("failure writes nothing", func(t *testing.T) {
		st := newFaultyStore()
		st.f.createQuestion = errDisk

		seeded, err := SeedStarterData(ctx, st, nil)
		assert.ErrorIs(t, err, errDisk)
		assert.False(t, seeded)

		subjects, err := st.Store.Subjects().List(ctx, domain.SortAlphabetic)
		require.NoError(t, err)
		assert.Empty(t, subjects)
	})
}
