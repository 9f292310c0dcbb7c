package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/site-attendance/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	dtoUserID    = "11111111-1111-1111-1111-111111111111"
	dtoProjectID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

func TestWriteCommand_State(t *testing.T) {
	present := true
	absent := false
	project := dtoProjectID

	tests := []struct {
		name string
		req  UpsertAttendanceRequest
		want State
	}{
		{"paid leave", UpsertAttendanceRequest{Type: "normal", Present: &present, IsPaidLeave: true}, StatePaidLeave},
		{"absent", UpsertAttendanceRequest{Type: "normal", Present: &absent}, StateAbsent},
		{"present normal", UpsertAttendanceRequest{Type: "normal", Present: &present}, StatePresentNormal},
		{"present project", UpsertAttendanceRequest{Type: "project", Present: &present, ProjectID: &project}, StatePresentProject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.ActorID = "admin"
			tt.req.UserID = dtoUserID
			tt.req.Date = "2024-03-04"

			cmd, err := tt.req.Validate()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd.State())
		})
	}
}

func TestMarkAttendanceRequest_CollectsFieldErrors(t *testing.T) {
	req := MarkAttendanceRequest{ActorID: "d1", Type: "shift"}

	_, err := req.Validate(time.Now())
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := verrs.ToMap()
	assert.Contains(t, fields, "present")
	assert.Contains(t, fields, "type")
	assert.Contains(t, fields, "user_id")
}

func TestWriteCommand_NormalizeHours(t *testing.T) {
	present := true
	req := UpsertAttendanceRequest{
		ActorID:       "admin",
		UserID:        dtoUserID,
		Date:          "2024-03-04",
		Type:          "normal",
		Present:       &present,
		WorkingHours:  ParseHours("9:45"),
		OvertimeHours: NumericHours(0.5),
	}

	cmd, err := req.Validate()
	require.NoError(t, err)
	require.NoError(t, cmd.NormalizeHours())

	assert.Equal(t, 9.75, cmd.WorkingHours)
	require.NotNil(t, cmd.OvertimeHours)
	assert.Equal(t, 0.5, *cmd.OvertimeHours)
}

func TestUserAttendanceFilter_Validate(t *testing.T) {
	start := "2024-03-01"
	end := "2024-03-31"
	typ := "normal"

	q, err := (&UserAttendanceFilter{UserID: dtoUserID, StartDate: &start, EndDate: &end, Type: &typ}).Validate()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), *q.To)
	assert.Equal(t, TypeNormal, *q.Type)

	bad := "03/01/2024"
	_, err = (&UserAttendanceFilter{UserID: dtoUserID, StartDate: &bad}).Validate()
	assert.Error(t, err)
}

func TestUpsertAttendanceRequest_CanonicalisesIDs(t *testing.T) {
	present := true
	project := "AAAAAAAA-AAAA-AAAA-AAAA-AAAAAAAAAAAA"
	req := UpsertAttendanceRequest{
		ActorID:   "admin",
		UserID:    "11111111111111111111111111111111",
		Date:      "2024-03-04",
		Type:      "project",
		ProjectID: &project,
		Present:   &present,
	}

	cmd, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, dtoUserID, cmd.Key.UserID)
	assert.Equal(t, dtoProjectID, cmd.ProjectID)
}

func TestWriteRequests_RejectMalformedIDs(t *testing.T) {
	present := true
	bad := "project-1"
	req := UpsertAttendanceRequest{
		ActorID:   "admin",
		UserID:    "u1",
		Date:      "2024-03-04",
		Type:      "project",
		ProjectID: &bad,
		Present:   &present,
	}

	_, err := req.Validate()
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "user_id must be a valid UUID", verrs.ToMap()["user_id"])
	assert.Equal(t, "project_id must be a valid UUID", verrs.ToMap()["project_id"])

	remove := RemoveProjectEntryRequest{UserID: dtoUserID, Date: "2024-03-04", ProjectID: bad}
	_, err = remove.Validate()
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "project_id")

	_, err = (&UserAttendanceFilter{UserID: "u1"}).Validate()
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "user_id")
}
