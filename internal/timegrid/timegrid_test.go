package timegrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 9*60 + 30, false},
		{"23:59", 23*60 + 59, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
	}
	for _, tc := range testCases {
		got, err := Parse(tc.input)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.input)
			continue
		}
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay(9*60+5).String())
	assert.Equal(t, "00:00", TimeOfDay(0).String())
	assert.Equal(t, "23:59", TimeOfDay(23*60+59).String())
}

func TestFromTime(t *testing.T) {
	at := time.Date(2025, 9, 25, 14, 45, 59, 0, time.UTC)
	assert.Equal(t, TimeOfDay(14*60+45), FromTime(at))
}

func TestGenerateSlots(t *testing.T) {
	mustParse := func(s string) TimeOfDay {
		v, err := Parse(s)
		require.NoError(t, err)
		return v
	}

	testCases := []struct {
		name     string
		start    string
		end      string
		duration int
		want     []string
	}{
		{
			name:  "partial trailing slot is dropped",
			start: "09:00", end: "10:15", duration: 30,
			want: []string{"09:00", "09:30", "10:00"},
		},
		{
			name:  "zero-length range yields nothing",
			start: "09:00", end: "09:00", duration: 30,
			want: nil,
		},
		{
			name:  "full working day",
			start: "09:00", end: "17:00", duration: 30,
			want: []string{
				"09:00", "09:30", "10:00", "10:30", "11:00", "11:30",
				"12:00", "12:30", "13:00", "13:30", "14:00", "14:30",
				"15:00", "15:30", "16:00", "16:30",
			},
		},
		{
			name:  "exact single slot",
			start: "09:00", end: "10:00", duration: 60,
			want: []string{"09:00"},
		},
		{
			name:  "end before start yields nothing",
			start: "10:00", end: "09:00", duration: 30,
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := GenerateSlotStrings(mustParse(tc.start), mustParse(tc.end), tc.duration)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGenerateSlotsDeterministic(t *testing.T) {
	a := GenerateSlots(540, 1020, 45)
	b := GenerateSlots(540, 1020, 45)
	assert.Equal(t, a, b)
	for i := 1; i < len(a); i++ {
		assert.Less(t, a[i-1], a[i], "slots must ascend")
	}
}
