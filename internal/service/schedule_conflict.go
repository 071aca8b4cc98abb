package service

import (
	"fmt"

	"github.com/bktrung/academic-records-api/internal/models"
)

// SlotsOverlap reports whether two schedule slots collide. Slots only
// conflict when they share the same day and classroom and their closed
// period intervals intersect. The predicate is symmetric.
func SlotsOverlap(a, b models.ScheduleSlot) bool {
	if a.DayOfWeek != b.DayOfWeek {
		return false
	}
	if a.Classroom != b.Classroom {
		return false
	}
	return !(a.EndPeriod < b.StartPeriod || b.EndPeriod < a.StartPeriod)
}

// ValidateSchedule checks a class schedule in isolation: slots must be
// present, each slot must be well formed, and no two slots may overlap.
// The first offending slot or pair in index order is reported.
func ValidateSchedule(slots []models.ScheduleSlot) error {
	if len(slots) == 0 {
		return &models.ScheduleConflictError{Message: "class schedule must contain at least one slot"}
	}
	for i, slot := range slots {
		if slot.DayOfWeek < models.MinDayOfWeek || slot.DayOfWeek > models.MaxDayOfWeek {
			return &models.ScheduleConflictError{
				Message:  fmt.Sprintf("slot %d: day of week %d out of range [%d,%d]", i, slot.DayOfWeek, models.MinDayOfWeek, models.MaxDayOfWeek),
				Conflict: models.SlotConflict{CandidateSlot: slot},
			}
		}
		if slot.StartPeriod < models.MinPeriod || slot.EndPeriod > models.MaxPeriod {
			return &models.ScheduleConflictError{
				Message:  fmt.Sprintf("slot %d: periods must fall within [%d,%d]", i, models.MinPeriod, models.MaxPeriod),
				Conflict: models.SlotConflict{CandidateSlot: slot},
			}
		}
		if slot.StartPeriod > slot.EndPeriod {
			return &models.ScheduleConflictError{
				Message:  fmt.Sprintf("slot %d: start period %d after end period %d", i, slot.StartPeriod, slot.EndPeriod),
				Conflict: models.SlotConflict{CandidateSlot: slot},
			}
		}
		if slot.Classroom == "" {
			return &models.ScheduleConflictError{
				Message:  fmt.Sprintf("slot %d: classroom is required", i),
				Conflict: models.SlotConflict{CandidateSlot: slot},
			}
		}
	}
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			if SlotsOverlap(slots[i], slots[j]) {
				return &models.ScheduleConflictError{
					Message: fmt.Sprintf("slots %d and %d overlap in %s on day %d", i, j, slots[i].Classroom, slots[i].DayOfWeek),
					Conflict: models.SlotConflict{
						CandidateSlot: slots[i],
						ExistingSlot:  slots[j],
					},
				}
			}
		}
	}
	return nil
}

// FindClassConflicts re-verifies the candidate schedule against each slot of
// each pre-filtered existing class. The coarse candidate set comes from the
// store (shared day and classroom, optionally excluding one class code); the
// exact pairwise decision is always made here. Returns the conflicting
// classes and the first conflicting pair found.
func FindClassConflicts(candidate []models.ScheduleSlot, existing []models.Class) ([]models.Class, *models.SlotConflict) {
	var conflicting []models.Class
	var first *models.SlotConflict
	for _, class := range existing {
		hit := false
		for _, theirs := range class.Schedule {
			for _, ours := range candidate {
				if SlotsOverlap(ours, theirs) {
					hit = true
					if first == nil {
						first = &models.SlotConflict{
							CandidateSlot: ours,
							ExistingSlot:  theirs,
							ClassCode:     class.Code,
						}
					}
					break
				}
			}
			if hit {
				break
			}
		}
		if hit {
			conflicting = append(conflicting, class)
		}
	}
	return conflicting, first
}
