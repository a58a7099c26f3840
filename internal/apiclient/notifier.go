package apiclient

import "github.com/rs/zerolog"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows short-lived messages to the person using the portal.
type Notifier interface {
	Notify(level Level, message string)
}

type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// LogNotifier writes notifications to a logger.
func LogNotifier(log zerolog.Logger) Notifier {
	return NotifierFunc(func(level Level, message string) {
		event := log.Info()
		if level == LevelError {
			event = log.Warn()
		}
		event.Str("level", string(level)).Msg(message)
	})
}

var discardNotifier Notifier = NotifierFunc(func(Level, string) {})
