package controller

import (
	"context"
	"errors"
	"time"

	"scrappy/internal/types"
)

// Display is the controller screen. Rendering and layout belong to the
// implementation; the session only says what to show.
type Display interface {
	ShowConnection(status, detail string)
	ShowMenu(selected types.Difficulty)
	UpdateSelection(selected types.Difficulty)
	ShowGame(level int, difficulty types.Difficulty)
	ShowTransition(level int)
	ShowGameOver(reason string)
	ShowWin()

	UpdateLevel(level int)
	UpdateTimer(secondsLeft int)
	UpdateCommand(text string)
	UpdateResponse(text string)
}

// StatePublisher reports phase changes.
type StatePublisher interface {
	PublishControllerPhase(phase types.Phase, level int, difficulty types.Difficulty) error
}

// GameRecord describes one finished game.
type GameRecord struct {
	Difficulty types.Difficulty
	Level      int
	Outcome    types.Outcome
	StartedAt  time.Time
	EndedAt    time.Time
}

// GameRecorder stores finished games.
type GameRecorder interface {
	RecordGame(ctx context.Context, rec GameRecord) error
}

// Input is the local input sampled by the orchestrator for one tick.
type Input struct {
	Shake       bool
	Button      types.Button
	RotaryDelta int
}

// MultiRecorder records a game with every recorder in turn.
type MultiRecorder []GameRecorder

func (m MultiRecorder) RecordGame(ctx context.Context, rec GameRecord) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordGame(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
