package controller

import (
	"context"
	"errors"
	"time"

	"github.com/librescoot/librefsm"

	"scrappy/internal/fsm"
	"scrappy/internal/link"
	"scrappy/internal/logger"
	"scrappy/internal/protocol"
	"scrappy/internal/types"
)

const (
	DefaultBaseLevelDuration = 10 * time.Second
	DefaultLevelIncrement    = 2 * time.Second
	DefaultMaxLevel          = 10
	DefaultReplyTimeout      = 2 * time.Second
	DefaultLevelAckTimeout   = 5 * time.Second
	DefaultSettleDelay       = 2 * time.Second
	DefaultResponseHold      = 100 * time.Millisecond
)

const gameOverReason = "Scrappy Died!"

// ErrReplyTimeout is recorded when the robot does not answer a command
// within its wait bound.
var ErrReplyTimeout = errors.New("no reply from robot")

type Options struct {
	BaseLevelDuration time.Duration
	LevelIncrement    time.Duration
	MaxLevel          int
	ReplyTimeout      time.Duration
	LevelAckTimeout   time.Duration
	SettleDelay       time.Duration
	ResponseHold      time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseLevelDuration <= 0 {
		o.BaseLevelDuration = DefaultBaseLevelDuration
	}
	if o.LevelIncrement < 0 {
		o.LevelIncrement = DefaultLevelIncrement
	}
	if o.MaxLevel <= 0 {
		o.MaxLevel = DefaultMaxLevel
	}
	if o.ReplyTimeout <= 0 {
		o.ReplyTimeout = DefaultReplyTimeout
	}
	if o.LevelAckTimeout <= 0 {
		o.LevelAckTimeout = DefaultLevelAckTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.ResponseHold < 0 {
		o.ResponseHold = DefaultResponseHold
	}
	return o
}

// DefaultOptions returns the stock game timing.
func DefaultOptions() Options {
	return Options{
		BaseLevelDuration: DefaultBaseLevelDuration,
		LevelIncrement:    DefaultLevelIncrement,
		MaxLevel:          DefaultMaxLevel,
		ReplyTimeout:      DefaultReplyTimeout,
		LevelAckTimeout:   DefaultLevelAckTimeout,
		SettleDelay:       DefaultSettleDelay,
		ResponseHold:      DefaultResponseHold,
	}
}

// Session drives one controller game session. Tick is called from a single
// goroutine; entry actions run on the librefsm goroutine while Tick waits in
// SendSync.
type Session struct {
	link      link.Link
	display   Display
	publisher StatePublisher
	recorder  GameRecorder
	logger    *logger.Logger
	opts      Options

	ctx     context.Context
	machine *librefsm.Machine

	selector     DifficultySelector
	now          time.Time
	level        int
	difficulty   types.Difficulty
	gameStart    time.Time
	levelStart   time.Time
	lastTimer    int
	awaitRelease bool
	lastErr      error

	// command/reply wait while in GAME
	awaiting      bool
	replyDeadline time.Time
	holding       bool
	holdUntil     time.Time

	// TRANSITION progress
	settleUntil time.Time
	levelSent   bool
	ackDeadline time.Time
}

// New creates a session. Zero Options fields take the stock values, except
// LevelIncrement, SettleDelay and ResponseHold where zero is meaningful.
func New(l link.Link, display Display, publisher StatePublisher, recorder GameRecorder, log *logger.Logger, opts Options) *Session {
	return &Session{
		link:      l,
		display:   display,
		publisher: publisher,
		recorder:  recorder,
		logger:    log.WithTag("controller"),
		opts:      opts.withDefaults(),
		level:     1,
	}
}

// Start builds and starts the state machine in CONNECTING.
func (s *Session) Start(ctx context.Context) error {
	s.ctx = ctx
	return s.initFSM(ctx)
}

func (s *Session) Phase() types.Phase {
	return stateIDToPhase(s.machine.CurrentState())
}

func (s *Session) Level() int                   { return s.level }
func (s *Session) Difficulty() types.Difficulty { return s.difficulty }
func (s *Session) LevelStart() time.Time        { return s.levelStart }
func (s *Session) LastError() error             { return s.lastErr }
func (s *Session) Awaiting() bool               { return s.awaiting }

// ListeningForShake reports whether a shake would be acted on now. The
// detector is only polled then, so its cooldown is not spent on shakes that
// would be dropped anyway.
func (s *Session) ListeningForShake() bool {
	switch s.machine.CurrentState() {
	case fsm.StateGame:
		return !s.awaiting && !s.holding
	case fsm.StateGameOver, fsm.StateGameWin:
		return true
	}
	return false
}

// LevelDuration is the countdown length of the current level.
func (s *Session) LevelDuration() time.Duration {
	return s.opts.BaseLevelDuration + s.opts.LevelIncrement*time.Duration(s.level-1)
}

// LinkUp moves a connecting session to the menu.
func (s *Session) LinkUp(now time.Time) {
	s.now = now
	if s.machine.CurrentState() != fsm.StateConnecting {
		return
	}
	s.display.ShowConnection("Connected!", "")
	s.sendEvent(fsm.EvLinkUp)
}

// LinkLost abandons whatever phase is active.
func (s *Session) LinkLost(now time.Time) {
	s.now = now
	state := s.machine.CurrentState()
	if state == fsm.StateConnecting {
		return
	}
	if state == fsm.StateGame || state == fsm.StateTransition {
		s.recordGame(types.OutcomeDisconnected)
	}
	s.sendEvent(fsm.EvLinkLost)
}

// Tick processes one step at now with the local input sampled for it.
// It returns link.ErrLinkLost when the link is gone and nil otherwise.
func (s *Session) Tick(now time.Time, in Input) error {
	s.now = now

	if !s.link.Connected() {
		return link.ErrLinkLost
	}

	switch s.machine.CurrentState() {
	case fsm.StateMenu:
		return s.tickMenu(in)
	case fsm.StateGame:
		return s.tickGame(now, in)
	case fsm.StateTransition:
		return s.tickTransition(now)
	case fsm.StateGameOver, fsm.StateGameWin:
		if _, _, err := s.readMessage(); err != nil {
			return err
		}
		if in.Shake {
			s.sendEvent(fsm.EvShake)
		}
	}
	return nil
}

func (s *Session) tickMenu(in Input) error {
	if _, _, err := s.readMessage(); err != nil {
		return err
	}

	if in.RotaryDelta != 0 {
		d := s.selector.Move(in.RotaryDelta)
		s.display.UpdateSelection(d)
		s.logger.Debugf("Selected: %s", d.Title())
	}

	if s.waitingForRelease(in) {
		return nil
	}
	if in.Button != types.ButtonRight {
		return nil
	}

	s.difficulty = s.selector.Current()
	s.level = 1
	s.awaitRelease = true
	s.logger.Infof("Starting game on %s", s.difficulty)
	s.send(protocol.Level(s.level, s.difficulty))
	s.sendEvent(fsm.EvDifficultyChosen)
	return nil
}

func (s *Session) tickGame(now time.Time, in Input) error {
	left := s.LevelDuration() - now.Sub(s.levelStart)
	// Expiry wins over a DEAD queued on the same tick; the transition
	// drains it.
	if left <= 0 {
		s.completeLevel()
		return nil
	}

	if secs := int(left / time.Second); secs != s.lastTimer {
		s.lastTimer = secs
		s.display.UpdateTimer(secs)
	}

	msg, ok, err := s.readMessage()
	if err != nil {
		return err
	}
	if ok && msg.Kind == protocol.KindDead {
		s.robotDead()
		return nil
	}

	if s.awaiting {
		switch {
		case ok:
			s.display.UpdateResponse("ACK OK!")
			s.finishWait(now)
		case !now.Before(s.replyDeadline):
			s.lastErr = ErrReplyTimeout
			s.logger.Warnf("No response from robot")
			s.display.UpdateResponse("Timeout")
			s.finishWait(now)
		}
		return nil
	}
	if ok {
		s.logger.Debugf("Received (unsolicited): %s", msg)
	}

	if s.holding {
		if now.Before(s.holdUntil) {
			return nil
		}
		s.holding = false
		s.display.UpdateResponse("")
	}

	s.handleGameInput(now, in)
	return nil
}

func (s *Session) handleGameInput(now time.Time, in Input) {
	var msg protocol.Message
	switch {
	case in.Shake:
		msg = protocol.Manual()
	case s.waitingForRelease(in):
		return
	case in.Button != types.NoButton:
		msg = protocol.Move(in.Button)
	default:
		return
	}

	s.send(msg)
	s.display.UpdateCommand("Sent: " + msg.String())
	s.display.UpdateResponse("Waiting...")
	s.awaiting = true
	s.replyDeadline = now.Add(s.opts.ReplyTimeout)
}

func (s *Session) completeLevel() {
	s.clearWait()
	s.send(protocol.Stop())
	s.logger.Infof("Level %d complete", s.level)
	s.sendEvent(fsm.EvLevelComplete)
}

func (s *Session) tickTransition(now time.Time) error {
	if now.Before(s.settleUntil) {
		return nil
	}

	if !s.levelSent {
		if err := s.drain(); err != nil {
			return err
		}
		s.send(protocol.Level(s.level, s.difficulty))
		s.levelSent = true
		s.ackDeadline = now.Add(s.opts.LevelAckTimeout)
		return nil
	}

	msg, ok, err := s.readMessage()
	if err != nil {
		return err
	}
	switch {
	case ok && msg.Kind == protocol.KindDead:
		s.robotDead()
	case ok:
		s.logger.Debugf("Level ACK: %s", msg)
		s.sendEvent(fsm.EvLevelStarted)
	case !now.Before(s.ackDeadline):
		s.lastErr = ErrReplyTimeout
		s.logger.Warnf("No ACK for level %d, starting anyway", s.level)
		s.sendEvent(fsm.EvLevelStarted)
	}
	return nil
}

func (s *Session) robotDead() {
	s.clearWait()
	s.logger.Infof("Game over: %s", gameOverReason)
	s.sendEvent(fsm.EvRobotDead)
}

// waitingForRelease swallows button input after a menu confirm until every
// button has been released once.
func (s *Session) waitingForRelease(in Input) bool {
	if !s.awaitRelease {
		return false
	}
	if in.Button == types.NoButton {
		s.awaitRelease = false
	}
	return true
}

func (s *Session) finishWait(now time.Time) {
	s.awaiting = false
	s.holding = true
	s.holdUntil = now.Add(s.opts.ResponseHold)
}

func (s *Session) clearWait() {
	s.awaiting = false
	s.holding = false
}

// readMessage returns at most one decoded inbound line.
func (s *Session) readMessage() (protocol.Message, bool, error) {
	line, ok, err := s.link.ReadLine()
	if err != nil {
		if errors.Is(err, link.ErrLinkLost) {
			return protocol.Message{}, false, err
		}
		s.logger.Warnf("Failed to read from link: %v", err)
		return protocol.Message{}, false, nil
	}
	if !ok {
		return protocol.Message{}, false, nil
	}

	msg, err := protocol.Decode(line)
	if err != nil {
		s.logger.Debugf("Received unrecognized line: %v", err)
	}
	return msg, true, nil
}

// drain discards everything already buffered on the link.
func (s *Session) drain() error {
	n := 0
	for {
		_, ok, err := s.link.ReadLine()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		n++
	}
	if n > 0 {
		s.logger.Debugf("Dropped %d stale lines", n)
	}
	return nil
}

func (s *Session) send(msg protocol.Message) {
	if err := s.link.Write(msg.Encode()); err != nil {
		s.logger.Warnf("Failed to send %s: %v", msg, err)
		return
	}
	s.logger.Debugf("Sent: %s", msg)
}

func (s *Session) recordGame(outcome types.Outcome) {
	if s.recorder == nil || s.gameStart.IsZero() {
		return
	}
	rec := GameRecord{
		Difficulty: s.difficulty,
		Level:      s.level,
		Outcome:    outcome,
		StartedAt:  s.gameStart,
		EndedAt:    s.now,
	}
	s.gameStart = time.Time{}
	if err := s.recorder.RecordGame(s.ctx, rec); err != nil {
		s.logger.Warnf("Failed to record game: %v", err)
	}
}

func (s *Session) publish(phase types.Phase) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishControllerPhase(phase, s.level, s.difficulty); err != nil {
		s.logger.Warnf("Failed to publish phase: %v", err)
	}
}
