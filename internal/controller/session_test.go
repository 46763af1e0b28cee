package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"scrappy/internal/link"
	"scrappy/internal/logger"
	"scrappy/internal/types"
)

// Mock Link
type mockLink struct {
	mu        sync.Mutex
	connected bool
	inbox     []string
	written   []string
}

func (m *mockLink) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockLink) ReadLine() (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inbox) > 0 {
		line := m.inbox[0]
		m.inbox = m.inbox[1:]
		return line, true, nil
	}
	if !m.connected {
		return "", false, link.ErrLinkLost
	}
	return "", false, nil
}

func (m *mockLink) Write(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, strings.TrimSuffix(string(p), "\n"))
	return nil
}

func (m *mockLink) push(lines ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = append(m.inbox, lines...)
}

func (m *mockLink) sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.written...)
}

func (m *mockLink) lastSent() string {
	sent := m.sent()
	if len(sent) == 0 {
		return ""
	}
	return sent[len(sent)-1]
}

func (m *mockLink) setConnected(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = v
}

// Mock Display
type mockDisplay struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockDisplay) record(format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, fmt.Sprintf(format, args...))
}

func (m *mockDisplay) ShowConnection(status, detail string) { m.record("connection:%s", status) }
func (m *mockDisplay) ShowMenu(d types.Difficulty)          { m.record("menu:%s", d) }
func (m *mockDisplay) UpdateSelection(d types.Difficulty)   { m.record("select:%s", d) }
func (m *mockDisplay) ShowGame(level int, d types.Difficulty) {
	m.record("game:%d:%s", level, d)
}
func (m *mockDisplay) ShowTransition(level int)    { m.record("transition:%d", level) }
func (m *mockDisplay) ShowGameOver(reason string)  { m.record("gameover:%s", reason) }
func (m *mockDisplay) ShowWin()                    { m.record("win") }
func (m *mockDisplay) UpdateLevel(level int)       { m.record("level:%d", level) }
func (m *mockDisplay) UpdateTimer(secondsLeft int) { m.record("timer:%d", secondsLeft) }
func (m *mockDisplay) UpdateCommand(text string)   { m.record("command:%s", text) }
func (m *mockDisplay) UpdateResponse(text string)  { m.record("response:%s", text) }

func (m *mockDisplay) last(prefix string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if strings.HasPrefix(m.calls[i], prefix) {
			return m.calls[i]
		}
	}
	return ""
}

// Mock GameRecorder
type mockRecorder struct {
	mu      sync.Mutex
	records []GameRecord
}

func (m *mockRecorder) RecordGame(ctx context.Context, rec GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *mockRecorder) all() []GameRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GameRecord(nil), m.records...)
}

type testSession struct {
	*Session
	link     *mockLink
	display  *mockDisplay
	recorder *mockRecorder
}

var t0 = time.Unix(20_000, 0)

func newTestSession(t *testing.T) *testSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ts := &testSession{
		link:     &mockLink{connected: true},
		display:  &mockDisplay{},
		recorder: &mockRecorder{},
	}
	l := logger.NewLogger(nil, logger.LogLevelError)
	ts.Session = New(ts.link, ts.display, nil, ts.recorder, l, DefaultOptions())
	if err := ts.Start(ctx); err != nil {
		t.Fatalf("Failed to start session: %v", err)
	}
	return ts
}

func (ts *testSession) tick(t *testing.T, now time.Time, in Input) {
	t.Helper()
	if err := ts.Tick(now, in); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

func (ts *testSession) assertPhase(t *testing.T, want types.Phase) {
	t.Helper()
	if got := ts.Phase(); got != want {
		t.Fatalf("phase = %s, want %s", got, want)
	}
}

// startGame connects, confirms the current menu selection at now and
// releases the confirm button.
func (ts *testSession) startGame(t *testing.T, now time.Time, rotary int) {
	t.Helper()
	ts.LinkUp(now)
	ts.tick(t, now, Input{RotaryDelta: rotary})
	ts.tick(t, now, Input{Button: types.ButtonRight})
	ts.assertPhase(t, types.PhaseGame)
	ts.tick(t, now, Input{})
}

// finishLevel runs the countdown of the current level out from levelStart,
// lets the transition settle and acknowledges the next LEVEL.
func (ts *testSession) finishLevel(t *testing.T) time.Time {
	t.Helper()
	end := ts.LevelStart().Add(ts.LevelDuration())
	ts.tick(t, end, Input{})
	if ts.Phase() != types.PhaseTransition {
		return end
	}

	settled := end.Add(DefaultSettleDelay)
	ts.tick(t, settled, Input{})
	ts.link.push("ACK")
	ts.tick(t, settled.Add(50*time.Millisecond), Input{})
	ts.assertPhase(t, types.PhaseGame)
	return settled.Add(50 * time.Millisecond)
}

// ===== Connection Tests =====

func TestStartsConnecting(t *testing.T) {
	ts := newTestSession(t)
	ts.assertPhase(t, types.PhaseConnecting)
	if got := ts.display.last("connection:"); got != "connection:Scanning..." {
		t.Errorf("display = %q, want scanning screen", got)
	}
}

func TestLinkUpShowsMenu(t *testing.T) {
	ts := newTestSession(t)
	ts.LinkUp(t0)

	ts.assertPhase(t, types.PhaseMenu)
	if got := ts.display.last("menu:"); got != "menu:EASY" {
		t.Errorf("display = %q, want menu with EASY selected", got)
	}
}

func TestLinkLossFromAnyPhaseReturnsToConnecting(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)

	ts.link.setConnected(false)
	if err := ts.Tick(t0.Add(time.Second), Input{}); !errors.Is(err, link.ErrLinkLost) {
		t.Fatalf("Tick err = %v, want ErrLinkLost", err)
	}
	ts.LinkLost(t0.Add(time.Second))
	ts.assertPhase(t, types.PhaseConnecting)

	recs := ts.recorder.all()
	if len(recs) != 1 || recs[0].Outcome != types.OutcomeDisconnected {
		t.Errorf("records = %+v, want one disconnected game", recs)
	}

	ts.link.setConnected(true)
	ts.LinkUp(t0.Add(2 * time.Second))
	ts.assertPhase(t, types.PhaseMenu)
	if ts.Level() != 1 {
		t.Errorf("level after reconnect = %d, want 1", ts.Level())
	}
}

// ===== Menu Tests =====

func TestRotaryCyclesDifficulty(t *testing.T) {
	tests := []struct {
		deltas []int
		want   types.Difficulty
	}{
		{[]int{1}, types.Medium},
		{[]int{1, 1}, types.Hard},
		{[]int{3}, types.Easy},
		{[]int{1, 1, 1, 1}, types.Medium},
		{[]int{-1}, types.Hard},
		{[]int{2, -1}, types.Medium},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.deltas), func(t *testing.T) {
			ts := newTestSession(t)
			ts.LinkUp(t0)
			for _, d := range tt.deltas {
				ts.tick(t, t0, Input{RotaryDelta: d})
			}
			if got := ts.display.last("select:"); got != "select:"+tt.want.String() {
				t.Errorf("display = %q, want %s", got, tt.want)
			}
		})
	}
}

func TestConfirmSendsFirstLevel(t *testing.T) {
	ts := newTestSession(t)
	ts.LinkUp(t0)
	ts.tick(t, t0, Input{RotaryDelta: 2})
	ts.tick(t, t0, Input{Button: types.ButtonLeft})
	ts.assertPhase(t, types.PhaseMenu)

	ts.tick(t, t0, Input{Button: types.ButtonRight})

	ts.assertPhase(t, types.PhaseGame)
	if got := ts.link.lastSent(); got != "LEVEL:1:HARD" {
		t.Errorf("sent %q, want LEVEL:1:HARD", got)
	}
	if ts.LevelDuration() != 10*time.Second {
		t.Errorf("duration = %v, want 10s", ts.LevelDuration())
	}
	if got := ts.display.last("game:"); got != "game:1:HARD" {
		t.Errorf("display = %q, want game screen", got)
	}
}

func TestConfirmButtonMustBeReleased(t *testing.T) {
	ts := newTestSession(t)
	ts.LinkUp(t0)
	ts.tick(t, t0, Input{Button: types.ButtonRight})
	ts.assertPhase(t, types.PhaseGame)
	sent := len(ts.link.sent())

	ts.tick(t, t0.Add(10*time.Millisecond), Input{Button: types.ButtonRight})
	if len(ts.link.sent()) != sent {
		t.Fatal("held confirm button must not send a command")
	}

	ts.tick(t, t0.Add(20*time.Millisecond), Input{})
	ts.tick(t, t0.Add(30*time.Millisecond), Input{Button: types.ButtonRight})
	if got := ts.link.lastSent(); got != "RIGHT" {
		t.Errorf("sent %q, want RIGHT after release", got)
	}
}

// ===== Game Command Tests =====

func TestButtonSendsDirectionAndWaitsForAck(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)
	now := t0.Add(time.Second)

	ts.tick(t, now, Input{Button: types.ButtonUp})
	if got := ts.link.lastSent(); got != "UP" {
		t.Fatalf("sent %q, want UP", got)
	}
	if ts.display.last("command:") != "command:Sent: UP" || ts.display.last("response:") != "response:Waiting..." {
		t.Error("display should show the command and a waiting response")
	}
	sent := len(ts.link.sent())

	ts.tick(t, now.Add(100*time.Millisecond), Input{Button: types.ButtonDown, Shake: true})
	if len(ts.link.sent()) != sent {
		t.Fatal("no second command while a reply is pending")
	}

	ts.link.push("ACK")
	ts.tick(t, now.Add(200*time.Millisecond), Input{})
	if got := ts.display.last("response:"); got != "response:ACK OK!" {
		t.Errorf("response = %q, want ACK OK!", got)
	}
	if ts.Awaiting() {
		t.Error("ACK should end the wait")
	}

	ts.tick(t, now.Add(250*time.Millisecond), Input{Button: types.ButtonDown})
	if len(ts.link.sent()) != sent {
		t.Fatal("input during the response hold must be ignored")
	}

	ts.tick(t, now.Add(300*time.Millisecond), Input{Button: types.ButtonDown})
	if got := ts.link.lastSent(); got != "DOWN" {
		t.Errorf("sent %q, want DOWN after the hold", got)
	}
}

func TestShakeTakesPriorityOverButtons(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)

	ts.tick(t, t0.Add(time.Second), Input{Shake: true, Button: types.ButtonLeft})
	if got := ts.link.lastSent(); got != "MANUAL" {
		t.Errorf("sent %q, want MANUAL", got)
	}
}

func TestMissingReplyTimesOut(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)
	now := t0.Add(time.Second)

	ts.tick(t, now, Input{Button: types.ButtonLeft})
	ts.tick(t, now.Add(1999*time.Millisecond), Input{})
	if !ts.Awaiting() {
		t.Fatal("wait should last 2s")
	}

	ts.tick(t, now.Add(2*time.Second), Input{})
	if ts.Awaiting() {
		t.Fatal("wait should end at its bound")
	}
	if got := ts.display.last("response:"); got != "response:Timeout" {
		t.Errorf("response = %q, want Timeout", got)
	}
	if !errors.Is(ts.LastError(), ErrReplyTimeout) {
		t.Errorf("LastError = %v, want ErrReplyTimeout", ts.LastError())
	}
	ts.assertPhase(t, types.PhaseGame)
}

func TestDeadReplyEndsGame(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 1)

	ts.tick(t, t0.Add(time.Second), Input{Button: types.ButtonUp})
	ts.link.push("DEAD")
	ts.tick(t, t0.Add(1100*time.Millisecond), Input{})

	ts.assertPhase(t, types.PhaseGameOver)
	if got := ts.display.last("gameover:"); got != "gameover:Scrappy Died!" {
		t.Errorf("display = %q, want game over screen", got)
	}
	recs := ts.recorder.all()
	if len(recs) != 1 || recs[0].Outcome != types.OutcomeDead || recs[0].Difficulty != types.Medium {
		t.Errorf("records = %+v, want one MEDIUM dead game", recs)
	}
}

func TestUnsolicitedDeadEndsGame(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)

	ts.link.push("ACK", "DEAD")
	ts.tick(t, t0.Add(time.Second), Input{})
	ts.assertPhase(t, types.PhaseGame)

	ts.tick(t, t0.Add(1010*time.Millisecond), Input{})
	ts.assertPhase(t, types.PhaseGameOver)
}

func TestTimerUpdates(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)

	ts.tick(t, t0.Add(2500*time.Millisecond), Input{})
	if got := ts.display.last("timer:"); got != "timer:7" {
		t.Errorf("display = %q, want timer:7", got)
	}
}

// ===== Level Progression Tests =====

func TestLevelCompleteEntersTransition(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)

	ts.tick(t, t0.Add(9999*time.Millisecond), Input{})
	ts.assertPhase(t, types.PhaseGame)

	ts.tick(t, t0.Add(10*time.Second), Input{})
	ts.assertPhase(t, types.PhaseTransition)
	if got := ts.link.lastSent(); got != "STOP" {
		t.Errorf("sent %q, want STOP", got)
	}
	if ts.Level() != 2 || ts.LevelDuration() != 12*time.Second {
		t.Errorf("level %d duration %v, want 2 and 12s", ts.Level(), ts.LevelDuration())
	}
	if got := ts.display.last("transition:"); got != "transition:2" {
		t.Errorf("display = %q, want transition:2", got)
	}
}

func TestLevelExpiryBeatsDeadOnSameTick(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)
	end := t0.Add(10 * time.Second)

	ts.link.push("DEAD")
	ts.tick(t, end, Input{})
	ts.assertPhase(t, types.PhaseTransition)

	settled := end.Add(2 * time.Second)
	ts.tick(t, settled, Input{})
	if got := ts.link.lastSent(); got != "LEVEL:2:EASY" {
		t.Fatalf("sent %q, want LEVEL:2:EASY", got)
	}

	ts.link.push("ACK")
	ts.tick(t, settled.Add(10*time.Millisecond), Input{})
	ts.assertPhase(t, types.PhaseGame)
	if recs := ts.recorder.all(); len(recs) != 0 {
		t.Errorf("records = %+v, the game is still running", recs)
	}
}

func TestTransitionSettlesDrainsAndSendsLevel(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 2)
	end := t0.Add(10 * time.Second)
	ts.tick(t, end, Input{})
	sent := len(ts.link.sent())

	ts.link.push("ACK", "ACK")
	ts.tick(t, end.Add(1999*time.Millisecond), Input{})
	if len(ts.link.sent()) != sent {
		t.Fatal("nothing is sent before the settle delay")
	}

	settled := end.Add(2 * time.Second)
	ts.tick(t, settled, Input{})
	if got := ts.link.lastSent(); got != "LEVEL:2:HARD" {
		t.Fatalf("sent %q, want LEVEL:2:HARD", got)
	}

	// Stale ACKs were drained, so the phase waits for a fresh one.
	ts.tick(t, settled.Add(10*time.Millisecond), Input{})
	ts.assertPhase(t, types.PhaseTransition)

	ackAt := settled.Add(300 * time.Millisecond)
	ts.link.push("ACK")
	ts.tick(t, ackAt, Input{})
	ts.assertPhase(t, types.PhaseGame)
	if !ts.LevelStart().Equal(ackAt) {
		t.Errorf("level start = %v, want %v", ts.LevelStart(), ackAt)
	}
}

func TestTransitionMissingAckStillStartsLevel(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)
	end := t0.Add(10 * time.Second)
	ts.tick(t, end, Input{})

	settled := end.Add(2 * time.Second)
	ts.tick(t, settled, Input{})
	ts.tick(t, settled.Add(4999*time.Millisecond), Input{})
	ts.assertPhase(t, types.PhaseTransition)

	ts.tick(t, settled.Add(5*time.Second), Input{})
	ts.assertPhase(t, types.PhaseGame)
	if !errors.Is(ts.LastError(), ErrReplyTimeout) {
		t.Errorf("LastError = %v, want ErrReplyTimeout", ts.LastError())
	}
}

func TestLevelDurationGrowth(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)

	for k := 1; k < 10; k++ {
		ts.finishLevel(t)
		want := 10*time.Second + time.Duration(2*k)*time.Second
		if ts.Level() != k+1 || ts.LevelDuration() != want {
			t.Fatalf("after level %d: level %d duration %v, want %d and %v", k, ts.Level(), ts.LevelDuration(), k+1, want)
		}
	}
}

func TestTenLevelsWinAndShakeReturnsToMenu(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)

	var now time.Time
	for i := 0; i < 10; i++ {
		now = ts.finishLevel(t)
	}

	ts.assertPhase(t, types.PhaseGameWin)
	if got := ts.link.lastSent(); got != "STOP" {
		t.Errorf("sent %q, want STOP", got)
	}
	if ts.display.last("win") != "win" {
		t.Error("win screen not shown")
	}
	recs := ts.recorder.all()
	if len(recs) != 1 || recs[0].Outcome != types.OutcomeWin || recs[0].Level != 10 {
		t.Errorf("records = %+v, want one win at level 10", recs)
	}

	ts.tick(t, now.Add(time.Second), Input{Button: types.ButtonUp})
	ts.assertPhase(t, types.PhaseGameWin)

	ts.tick(t, now.Add(2*time.Second), Input{Shake: true})
	ts.assertPhase(t, types.PhaseMenu)
	if ts.LevelDuration() != 10*time.Second {
		t.Errorf("duration after win = %v, want base 10s", ts.LevelDuration())
	}
}

func TestGameOverShakeResetsDuration(t *testing.T) {
	ts := newTestSession(t)
	ts.startGame(t, t0, 0)
	ts.finishLevel(t)
	ts.finishLevel(t)
	if ts.LevelDuration() != 14*time.Second {
		t.Fatalf("duration = %v, want 14s", ts.LevelDuration())
	}

	ts.link.push("DEAD")
	now := ts.LevelStart().Add(time.Second)
	ts.tick(t, now, Input{})
	ts.assertPhase(t, types.PhaseGameOver)

	ts.tick(t, now.Add(time.Second), Input{Shake: true})
	ts.assertPhase(t, types.PhaseMenu)
	if ts.LevelDuration() != 10*time.Second {
		t.Errorf("duration = %v, want base 10s", ts.LevelDuration())
	}
}
