package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		want    Clock
		wantErr bool
	}{
		{input: "09:00", want: Clock{Hour: 9, Minute: 0}},
		{input: "9:05", want: Clock{Hour: 9, Minute: 5}},
		{input: "23:59", want: Clock{Hour: 23, Minute: 59}},
		{input: " 00:00 ", want: Clock{}},
		{input: "24:00", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "1200", wantErr: true},
		{input: "12:", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "", wantErr: true},
		{input: "12:30:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseClock(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClock_TextRoundTrip(t *testing.T) {
	window := TimeWindow{Kind: WindowWeekday, From: MustParseClock("09:00"), To: MustParseClock("18:30")}

	raw, err := json.Marshal(window)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"weekday","from":"09:00","to":"18:30"}`, string(raw))

	var decoded TimeWindow
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, window, decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"kind":"weekday","from":"25:00","to":"18:30"}`), &decoded))
}

func TestWidgetMount_Windows(t *testing.T) {
	mount := WidgetMount{
		Settings: map[WindowKind]WindowRange{
			WindowDayOff:  {From: "10:00", To: "14:00"},
			WindowWeekday: {From: "09:00", To: "18:00"},
			"holiday":     {From: "bad", To: "18:00"},
		},
	}

	windows := mount.Windows()
	require.Len(t, windows, 2)
	assert.Equal(t, WindowWeekday, windows[0].Kind)
	assert.Equal(t, WindowDayOff, windows[1].Kind)
	assert.Equal(t, Clock{Hour: 10}, windows[1].From)

	assert.Empty(t, WidgetMount{}.Windows())
}
