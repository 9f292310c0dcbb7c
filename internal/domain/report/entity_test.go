package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.0, Rate(3, 0))
	assert.Equal(t, 100.0, Rate(4, 4))
	assert.Equal(t, 66.7, Rate(2, 3))
	assert.Equal(t, 33.3, Rate(1, 3))
	assert.Equal(t, 12.5, Rate(1, 8))
}

func TestProjectAnalyticsRequest_DefaultWindow(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)

	monthly := ProjectAnalyticsRequest{}
	w, err := monthly.Validate(now)
	require.NoError(t, err)
	assert.Equal(t, PeriodMonthly, monthly.Period)
	assert.Equal(t, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), w.From)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), w.To)

	weekly := ProjectAnalyticsRequest{Period: PeriodWeekly}
	w, err = weekly.Validate(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 23, 0, 0, 0, 0, time.UTC), w.From)
}

func TestProjectAnalyticsRequest_Invalid(t *testing.T) {
	start := "2024-06-01"
	end := "2024-05-01"
	bad := "nope"

	req := ProjectAnalyticsRequest{Period: "daily", StartDate: &start, EndDate: &end, ProjectID: &bad}
	_, err := req.Validate(time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "period")
	assert.Contains(t, err.Error(), "end_date")
	assert.Contains(t, err.Error(), "project_id")
}

func TestTrendRequest_Validate(t *testing.T) {
	req := TrendRequest{UserID: "0b0c7f0e-7d0e-4a51-9d1e-1f0c2b3a4d5e"}
	require.NoError(t, req.Validate())
	assert.Equal(t, DefaultTrendMonths, req.Months)

	req = TrendRequest{UserID: "0b0c7f0e-7d0e-4a51-9d1e-1f0c2b3a4d5e", Months: 40}
	assert.Error(t, req.Validate())
}
