package motion

import (
	"math/rand"
	"testing"
	"time"

	"scrappy/internal/types"
)

type actuatorCall struct {
	dir   types.Direction
	speed int
}

type mockActuator struct {
	calls []actuatorCall
}

func (m *mockActuator) Forward(speed int) error  { return m.record(types.Forward, speed) }
func (m *mockActuator) Backward(speed int) error { return m.record(types.Backward, speed) }
func (m *mockActuator) Left(speed int) error     { return m.record(types.Left, speed) }
func (m *mockActuator) Right(speed int) error    { return m.record(types.Right, speed) }
func (m *mockActuator) Stop() error              { return m.record(types.Stop, 0) }

func (m *mockActuator) record(dir types.Direction, speed int) error {
	m.calls = append(m.calls, actuatorCall{dir, speed})
	return nil
}

func (m *mockActuator) last() actuatorCall {
	return m.calls[len(m.calls)-1]
}

func newTestGenerator(seed int64) (*Generator, *mockActuator) {
	act := &mockActuator{}
	return NewGenerator(act, rand.New(rand.NewSource(seed)), nil), act
}

func TestNextMoveStaysInProfile(t *testing.T) {
	g, _ := newTestGenerator(1)

	for _, d := range []types.Difficulty{types.Easy, types.Medium, types.Hard} {
		p := ProfileFor(d)
		seenSpeeds := map[int]bool{}
		for i := 0; i < 2000; i++ {
			m := g.NextMove(d)
			if m.Speed < p.MinSpeed || m.Speed > p.MaxSpeed {
				t.Fatalf("%s speed %d outside [%d,%d]", d, m.Speed, p.MinSpeed, p.MaxSpeed)
			}
			if m.Duration < p.MinMove || m.Duration > p.MaxMove {
				t.Fatalf("%s duration %v outside [%v,%v]", d, m.Duration, p.MinMove, p.MaxMove)
			}
			if m.Pause < p.MinPause || m.Pause > p.MaxPause {
				t.Fatalf("%s pause %v outside [%v,%v]", d, m.Pause, p.MinPause, p.MaxPause)
			}
			switch m.Direction {
			case types.Forward, types.Backward, types.Left, types.Right:
			default:
				t.Fatalf("%s direction %v not a drive direction", d, m.Direction)
			}
			seenSpeeds[m.Speed] = true
		}
		if !seenSpeeds[p.MinSpeed] || !seenSpeeds[p.MaxSpeed] {
			t.Errorf("%s speed bounds should both be reachable, saw %v", d, seenSpeeds)
		}
	}
}

func TestProfileTable(t *testing.T) {
	tests := []struct {
		d          types.Difficulty
		minS, maxS int
	}{
		{types.Easy, 55, 60},
		{types.Medium, 60, 65},
		{types.Hard, 70, 75},
	}
	for _, tt := range tests {
		p := ProfileFor(tt.d)
		if p.MinSpeed != tt.minS || p.MaxSpeed != tt.maxS {
			t.Errorf("%s speed range = %d-%d, want %d-%d", tt.d, p.MinSpeed, p.MaxSpeed, tt.minS, tt.maxS)
		}
	}
}

func TestUpdatePausesFirstThenMoves(t *testing.T) {
	g, act := newTestGenerator(7)
	g.SetLevel(1, types.Hard)
	t0 := time.Unix(500, 0)

	act.calls = nil
	g.Update(t0)
	if !g.Pausing() {
		t.Fatal("first update should start a pause")
	}
	if len(act.calls) != 1 || act.last().dir != types.Stop {
		t.Fatalf("first update calls = %+v, want a single stop", act.calls)
	}

	pauseEnd := g.MoveEnd()
	if d := pauseEnd.Sub(t0); d < 400*time.Millisecond || d > 500*time.Millisecond {
		t.Errorf("hard pause = %v, want 0.4s-0.5s", d)
	}

	g.Update(pauseEnd.Add(-time.Millisecond))
	if len(act.calls) != 1 {
		t.Fatalf("update before phase end must be a no-op, calls = %+v", act.calls)
	}

	g.Update(pauseEnd)
	if g.Pausing() {
		t.Fatal("pause expiry should start a move")
	}
	mv := act.last()
	if mv.dir == types.Stop || mv.speed < 70 || mv.speed > 75 {
		t.Errorf("move = %+v, want a hard drive command", mv)
	}

	g.Update(g.MoveEnd())
	if !g.Pausing() || act.last().dir != types.Stop {
		t.Error("move expiry should stop and pause")
	}
}

func TestResetRestartsCycle(t *testing.T) {
	g, act := newTestGenerator(3)
	t0 := time.Unix(500, 0)
	g.Update(t0)
	g.Update(g.MoveEnd())
	if g.Pausing() {
		t.Fatal("expected to be moving")
	}

	g.Reset()
	if act.last().dir != types.Stop {
		t.Error("Reset should stop the actuator")
	}
	if g.Pausing() || !g.MoveEnd().IsZero() {
		t.Error("Reset should clear the phase")
	}
}

func TestSetLevelKeepsDifficulty(t *testing.T) {
	g, _ := newTestGenerator(3)
	g.SetLevel(4, types.Medium)
	if g.Level() != 4 || g.Difficulty() != types.Medium {
		t.Errorf("level/difficulty = %d/%s, want 4/MEDIUM", g.Level(), g.Difficulty())
	}
}

func TestSameSeedSamePattern(t *testing.T) {
	a, _ := newTestGenerator(42)
	b, _ := newTestGenerator(42)
	for i := 0; i < 20; i++ {
		if ma, mb := a.NextMove(types.Medium), b.NextMove(types.Medium); ma != mb {
			t.Fatalf("move %d differs: %+v vs %+v", i, ma, mb)
		}
	}
}
