package messaging

import (
	"testing"
	"time"

	"scrappy/internal/types"
)

func TestStateFields(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	fields := stateFields(string(types.RobotAuto), 3, types.Hard, now)

	want := map[string]string{
		"state":           "auto",
		"level":           "3",
		"difficulty":      "HARD",
		"state:timestamp": "2026-03-01T12:30:00Z",
	}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d: %v", len(fields), len(want), fields)
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("%s = %v, want %s", k, fields[k], v)
		}
	}
}

func TestStateFieldsSkipsUnknownDifficulty(t *testing.T) {
	fields := stateFields("menu", 1, types.Difficulty(7), time.Now())
	if _, ok := fields["difficulty"]; ok {
		t.Errorf("difficulty should be omitted, got %v", fields["difficulty"])
	}
}
