package schedules

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

func TestPathWeekday(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Weekday
		wantErr bool
	}{
		{"1", time.Monday, false},
		{"0", time.Sunday, false},
		{"Saturday", time.Saturday, false},
		{"7", 0, true},
		{"funday", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"day": tt.raw})
			got, err := PathWeekday(r)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateScheduleBody_ToServiceRequest(t *testing.T) {
	end := "2025-12-31"
	from, to := "10:00", "14:00"
	body := CreateScheduleBody{
		WorkerID: 7,
		Details: DetailsBody{
			Title:              "Основное",
			IsDefault:          true,
			EffectiveStartDate: "2025-06-01",
			EffectiveEndDate:   &end,
			TimeZoneID:         "Europe/Moscow",
		},
		RuleItems: []RuleItemBody{
			{DayOfWeek: 1, StartTime: "09:00", EndTime: "18:00", IsWorkingDay: true,
				Breaks: []BreakBody{{Name: "Обед", StartTime: "13:00", EndTime: "14:00"}}},
			{DayOfWeek: 0, IsWorkingDay: false},
		},
		Overrides: []OverrideBody{{Date: "2025-06-12", IsWorkingDay: true, StartTime: &from, EndTime: &to}},
	}

	req, err := body.ToServiceRequest(3)
	require.NoError(t, err)

	assert.Equal(t, int64(3), req.BusinessProfileID)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), req.Details.EffectiveStartDate)
	require.NotNil(t, req.Details.EffectiveEndDate)
	require.Len(t, req.RuleItems, 2)
	assert.Equal(t, time.Monday, req.RuleItems[0].DayOfWeek)
	assert.Equal(t, types.TimeString("13:00"), req.RuleItems[0].Breaks[0].StartTime)
	assert.True(t, req.RuleItems[1].StartTime.IsZero(), "нерабочий день без времени")
	require.Len(t, req.Overrides, 1)
	assert.Equal(t, types.TimeString("10:00"), *req.Overrides[0].StartTime)
}

func TestCreateScheduleBody_InvalidTimes(t *testing.T) {
	body := CreateScheduleBody{
		WorkerID:  7,
		Details:   DetailsBody{Title: "x", EffectiveStartDate: "2025-06-01", TimeZoneID: "UTC"},
		RuleItems: []RuleItemBody{{DayOfWeek: 1, StartTime: "9am", EndTime: "18:00", IsWorkingDay: true}},
	}
	_, err := body.ToServiceRequest(3)
	assert.ErrorIs(t, err, domain.ErrValidation)

	body.RuleItems = nil
	body.Details.EffectiveStartDate = "01.06.2025"
	_, err = body.ToServiceRequest(3)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSetRuleItemBody_KeepsBreaksWhenOmitted(t *testing.T) {
	body := SetRuleItemBody{StartTime: "08:00", EndTime: "16:00", IsWorkingDay: true}
	req, err := body.ToServiceRequest(time.Tuesday)
	require.NoError(t, err)
	assert.Nil(t, req.Breaks)

	empty := []BreakBody{}
	body.Breaks = &empty
	req, err = body.ToServiceRequest(time.Tuesday)
	require.NoError(t, err)
	assert.NotNil(t, req.Breaks)
	assert.Empty(t, req.Breaks)
}
