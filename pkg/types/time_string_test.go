package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TimeString
		wantErr error
	}{
		{name: "regular", input: "09:30", want: "09:30"},
		{name: "with seconds", input: "17:00:00", want: "17:00"},
		{name: "midnight", input: "00:00", want: "00:00"},
		{name: "end of day", input: "24:00", want: "24:00"},
		{name: "past end of day", input: "24:01", wantErr: ErrTimeOutOfRange},
		{name: "bad minutes", input: "10:60", wantErr: ErrTimeOutOfRange},
		{name: "garbage", input: "9am", wantErr: ErrInvalidTimeString},
		{name: "empty", input: "", wantErr: ErrInvalidTimeString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTimeStringFromString(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeString_Arithmetic(t *testing.T) {
	start := MustTimeString("09:45")

	assert.Equal(t, 585, start.Minutes())

	next, err := start.AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("10:15"), next)

	assert.True(t, start.IsBefore(next))
	assert.True(t, next.IsAfter(start))
	assert.False(t, start.IsBefore(start))

	_, err = MustTimeString("23:30").AddMinutes(60)
	assert.ErrorIs(t, err, ErrTimeOutOfRange)

	end, err := MustTimeString("23:30").AddMinutes(30)
	require.NoError(t, err)
	assert.Equal(t, TimeString("24:00"), end)
}

func TestTimeString_On(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	date := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	got := MustTimeString("09:00").On(date, loc)
	assert.Equal(t, time.Date(2024, 3, 4, 14, 0, 0, 0, time.UTC), got.UTC())

	endOfDay := MustTimeString("24:00").On(date, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), endOfDay)
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan("08:15:00"))
	assert.Equal(t, TimeString("08:15"), ts)

	require.NoError(t, ts.Scan([]byte("12:00:00")))
	assert.Equal(t, TimeString("12:00"), ts)

	require.NoError(t, ts.Scan(time.Date(0, 1, 1, 18, 5, 0, 0, time.UTC)))
	assert.Equal(t, TimeString("18:05"), ts)

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}
