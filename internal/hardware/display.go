package hardware

import (
	"scrappy/internal/logger"
	"scrappy/internal/types"
)

// ConsoleDisplay renders the controller screens to the log. Timer ticks are
// logged at debug level.
type ConsoleDisplay struct {
	logger *logger.Logger
}

func NewConsoleDisplay(l *logger.Logger) *ConsoleDisplay {
	return &ConsoleDisplay{logger: l.WithTag("display")}
}

func (d *ConsoleDisplay) ShowConnection(status, detail string) {
	if detail == "" {
		d.logger.Infof("[ SCRAPPY ] %s", status)
		return
	}
	d.logger.Infof("[ SCRAPPY ] %s %s", status, detail)
}

func (d *ConsoleDisplay) ShowMenu(selected types.Difficulty) {
	d.logger.Infof("[ SELECT DIFFICULTY ] > %s   (RIGHT to start)", selected.Title())
}

func (d *ConsoleDisplay) UpdateSelection(selected types.Difficulty) {
	d.logger.Infof("[ SELECT DIFFICULTY ] > %s", selected.Title())
}

func (d *ConsoleDisplay) ShowGame(level int, difficulty types.Difficulty) {
	d.logger.Infof("[ LEVEL %d | %s ]", level, difficulty.Title())
}

func (d *ConsoleDisplay) ShowTransition(level int) {
	d.logger.Infof("[ LEVEL COMPLETE ] Get ready for level %d", level)
}

func (d *ConsoleDisplay) ShowGameOver(reason string) {
	d.logger.Infof("[ GAME OVER ] %s  Shake to restart", reason)
}

func (d *ConsoleDisplay) ShowWin() {
	d.logger.Infof("[ YOU WIN! ] Shake to play again")
}

func (d *ConsoleDisplay) UpdateLevel(level int) {
	d.logger.Debugf("Level: %d", level)
}

func (d *ConsoleDisplay) UpdateTimer(secondsLeft int) {
	d.logger.Debugf("Time: %ds", secondsLeft)
}

func (d *ConsoleDisplay) UpdateCommand(text string) {
	d.logger.Infof("%s", text)
}

func (d *ConsoleDisplay) UpdateResponse(text string) {
	if text == "" {
		return
	}
	d.logger.Infof("Robot: %s", text)
}
