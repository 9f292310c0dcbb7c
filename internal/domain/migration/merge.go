package migration

import (
	"github.com/cmlabs-hris/site-attendance/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

// GroupMerge is the result of folding one key's records into a single record.
type GroupMerge struct {
	// Record carries the id of the earliest record in the group.
	Record       attendance.Attendance
	DuplicateIDs []string
	LegacyFolded bool
}

// MergeGroup folds records sharing one key, oldest first, into the earliest
// record. It does not touch its input.
func MergeGroup(records []attendance.Attendance) (GroupMerge, error) {
	if len(records) == 0 {
		return GroupMerge{}, ErrEmptyGroup
	}

	primary := records[0]
	merged := attendance.Attendance{
		ID:        primary.ID,
		UserID:    primary.UserID,
		Date:      primary.Date,
		Type:      primary.Type,
		MarkedBy:  primary.MarkedBy,
		CreatedAt: primary.CreatedAt,
		UserName:  primary.UserName,
	}

	var result GroupMerge
	entries := newEntrySet()
	rawTotal := decimal.Zero

	for i, rec := range records {
		if i > 0 {
			result.DuplicateIDs = append(result.DuplicateIDs, rec.ID)
		}
		merged.IsPaidLeave = merged.IsPaidLeave || rec.IsPaidLeave
		merged.Present = merged.Present || rec.Present
		if rec.MarkedBy != "" {
			merged.MarkedBy = rec.MarkedBy
		}
		rawTotal = rawTotal.Add(decimal.NewFromFloat(rec.WorkingHours))

		if entry, ok := rec.LegacyEntry(); ok && merged.Type == attendance.TypeProject {
			entries.set(entry)
			if len(rec.Projects) == 0 {
				result.LegacyFolded = true
			}
		}
	}

	// Embedded entries are scanned after every legacy column so they win.
	if merged.Type == attendance.TypeProject {
		for _, rec := range records {
			for _, entry := range rec.Projects {
				entries.set(entry)
			}
		}
	}

	switch {
	case merged.IsPaidLeave:
		merged.Projects = []attendance.ProjectEntry{}
		merged.Present = false
		merged.WorkingHours = 0
		merged.OvertimeHours = 0
	case merged.Type == attendance.TypeProject:
		merged.Projects = entries.list()
		total := decimal.Zero
		for _, e := range merged.Projects {
			total = total.Add(decimal.NewFromFloat(e.WorkingHours))
		}
		merged.WorkingHours, _ = total.Round(2).Float64()
		merged.OvertimeHours = attendance.DeriveOvertime(merged.WorkingHours)
	default:
		merged.Projects = []attendance.ProjectEntry{}
		merged.WorkingHours, _ = rawTotal.Round(2).Float64()
		merged.OvertimeHours = attendance.DeriveOvertime(merged.WorkingHours)
	}

	merged.LegacyProjectID = merged.PrimaryProjectID()
	result.Record = merged
	return result, nil
}

// entrySet keeps entries unique by project in first-seen order.
type entrySet struct {
	order []string
	byID  map[string]attendance.ProjectEntry
}

func newEntrySet() *entrySet {
	return &entrySet{byID: make(map[string]attendance.ProjectEntry)}
}

func (s *entrySet) set(e attendance.ProjectEntry) {
	if _, ok := s.byID[e.ProjectID]; !ok {
		s.order = append(s.order, e.ProjectID)
	}
	s.byID[e.ProjectID] = e
}

func (s *entrySet) list() []attendance.ProjectEntry {
	out := make([]attendance.ProjectEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
