package logging

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// ConsoleConfig configures a console Observer, grounded on
// monitoring/console_logger.go's ConsoleLoggerConfig.
type ConsoleConfig struct {
	// Writer is the destination for log output (defaults to a
	// terminal-aware colorable stdout when nil).
	Writer io.Writer
	// Verbose includes LevelDebug events; otherwise they are dropped.
	Verbose bool
}

// ConsoleObserver logs every notified event through zerolog, with ANSI
// coloring when attached to a real terminal (mirrors console_logger.go's
// NewConsoleLogger, rebuilt on zerolog/go-isatty/go-colorable instead of
// the stdlib log package).
type ConsoleObserver struct {
	logger  zerolog.Logger
	verbose bool
}

// NewConsoleObserver builds a ConsoleObserver from cfg.
func NewConsoleObserver(cfg ConsoleConfig) *ConsoleObserver {
	writer := cfg.Writer
	if writer == nil {
		if isatty.IsTerminal(os.Stdout.Fd()) {
			writer = zerolog.ConsoleWriter{Out: colorable.NewColorableStdout()}
		} else {
			writer = os.Stdout
		}
	}
	return &ConsoleObserver{
		logger:  zerolog.New(writer).With().Timestamp().Logger(),
		verbose: cfg.Verbose,
	}
}

// Notify implements Observer.
func (c *ConsoleObserver) Notify(event LogEvent) {
	if event.Level == LevelDebug && !c.verbose {
		return
	}

	var zl *zerolog.Event
	switch event.Level {
	case LevelError:
		zl = c.logger.Error()
	case LevelWarn:
		zl = c.logger.Warn()
	case LevelDebug:
		zl = c.logger.Debug()
	default:
		zl = c.logger.Info()
	}

	zl = zl.Str("type", string(event.Type)).Str("canal", event.CanalNr)
	if event.LineNr != 0 {
		zl = zl.Int("line", event.LineNr)
	}
	if event.Code != 0 {
		zl = zl.Int("code", event.Code)
	}
	if event.Duration != 0 {
		zl = zl.Dur("duration", event.Duration)
	}
	for k, v := range event.Metadata {
		zl = zl.Interface(k, v)
	}
	if event.Err != nil {
		zl = zl.Err(event.Err)
	}
	zl.Msg(event.Message)
}
