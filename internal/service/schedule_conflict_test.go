package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bktrung/academic-records-api/internal/models"
)

func slot(day, start, end int, room string) models.ScheduleSlot {
	return models.ScheduleSlot{DayOfWeek: day, StartPeriod: start, EndPeriod: end, Classroom: room}
}

func TestSlotsOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    models.ScheduleSlot
		b    models.ScheduleSlot
		want bool
	}{
		{"same day same room overlapping", slot(2, 1, 3, "A101"), slot(2, 3, 5, "A101"), true},
		{"contained interval", slot(2, 1, 10, "A101"), slot(2, 4, 5, "A101"), true},
		{"adjacent periods do not overlap", slot(2, 1, 3, "A101"), slot(2, 4, 6, "A101"), false},
		{"different day", slot(2, 1, 3, "A101"), slot(3, 1, 3, "A101"), false},
		{"different classroom", slot(2, 1, 3, "A101"), slot(2, 1, 3, "B202"), false},
		{"identical slots", slot(5, 7, 9, "Lab1"), slot(5, 7, 9, "Lab1"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SlotsOverlap(tt.a, tt.b))
			// Overlap is symmetric.
			assert.Equal(t, tt.want, SlotsOverlap(tt.b, tt.a))
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	t.Run("valid multi-slot schedule", func(t *testing.T) {
		err := ValidateSchedule([]models.ScheduleSlot{
			slot(2, 1, 3, "A101"),
			slot(2, 4, 6, "A101"),
			slot(4, 1, 3, "A101"),
		})
		assert.NoError(t, err)
	})

	t.Run("empty schedule rejected", func(t *testing.T) {
		err := ValidateSchedule(nil)
		assert.Error(t, err)
	})

	t.Run("day out of range", func(t *testing.T) {
		err := ValidateSchedule([]models.ScheduleSlot{slot(1, 1, 3, "A101")})
		assert.Error(t, err)
	})

	t.Run("period out of range", func(t *testing.T) {
		err := ValidateSchedule([]models.ScheduleSlot{slot(2, 1, 11, "A101")})
		assert.Error(t, err)
	})

	t.Run("start after end", func(t *testing.T) {
		err := ValidateSchedule([]models.ScheduleSlot{slot(2, 5, 3, "A101")})
		assert.Error(t, err)
	})

	t.Run("missing classroom", func(t *testing.T) {
		err := ValidateSchedule([]models.ScheduleSlot{slot(2, 1, 3, "")})
		assert.Error(t, err)
	})

	t.Run("internal overlap reported with first pair", func(t *testing.T) {
		err := ValidateSchedule([]models.ScheduleSlot{
			slot(2, 1, 4, "A101"),
			slot(3, 1, 4, "A101"),
			slot(2, 4, 6, "A101"),
		})
		require.Error(t, err)
		var conflictErr *models.ScheduleConflictError
		require.ErrorAs(t, err, &conflictErr)
		assert.Equal(t, slot(2, 1, 4, "A101"), conflictErr.Conflict.CandidateSlot)
		assert.Equal(t, slot(2, 4, 6, "A101"), conflictErr.Conflict.ExistingSlot)
	})
}

func TestFindClassConflicts(t *testing.T) {
	candidate := []models.ScheduleSlot{slot(2, 1, 3, "A101"), slot(4, 5, 7, "B202")}
	existing := []models.Class{
		{Code: "CL-1", Schedule: []models.ScheduleSlot{slot(2, 3, 5, "A101")}},
		{Code: "CL-2", Schedule: []models.ScheduleSlot{slot(2, 4, 6, "A101")}},
		{Code: "CL-3", Schedule: []models.ScheduleSlot{slot(4, 6, 8, "B202")}},
	}

	conflicting, first := FindClassConflicts(candidate, existing)
	require.Len(t, conflicting, 2)
	assert.Equal(t, "CL-1", conflicting[0].Code)
	assert.Equal(t, "CL-3", conflicting[1].Code)
	require.NotNil(t, first)
	assert.Equal(t, "CL-1", first.ClassCode)
	assert.Equal(t, slot(2, 1, 3, "A101"), first.CandidateSlot)
	assert.Equal(t, slot(2, 3, 5, "A101"), first.ExistingSlot)
}

func TestFindClassConflictsNone(t *testing.T) {
	candidate := []models.ScheduleSlot{slot(2, 1, 3, "A101")}
	existing := []models.Class{
		{Code: "CL-1", Schedule: []models.ScheduleSlot{slot(2, 1, 3, "B202")}},
		{Code: "CL-2", Schedule: []models.ScheduleSlot{slot(3, 1, 3, "A101")}},
	}
	conflicting, first := FindClassConflicts(candidate, existing)
	assert.Empty(t, conflicting)
	assert.Nil(t, first)
}
