package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/events"
)

// LoggerSubscriber writes one structured log line per match event
type LoggerSubscriber struct {
	id      string
	logger  zerolog.Logger
	level   zerolog.Level
	only    map[string]struct{}
	devMode bool
}

// NewLoggerSubscriber logs every event at level until a filter is set
func NewLoggerSubscriber(id string, logger zerolog.Logger, level zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:     id,
		logger: logger.With().Str("subscriber", "event_logger").Logger(),
		level:  level,
	}
}

func (ls *LoggerSubscriber) ID() string { return ls.id }

// SetEventFilter restricts logging to eventTypes. An empty list logs everything.
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.only = nil
		return
	}
	ls.only = make(map[string]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		ls.only[t] = struct{}{}
	}
}

// SetDevMode attaches the full event as JSON under event_data
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if ls.only == nil {
		return true
	}
	_, ok := ls.only[eventType]
	return ok
}

func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	level := ls.level
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		level = zerolog.InfoLevel
	}

	z := ls.logger.WithLevel(level).
		Str("event_type", event.Type()).
		Str("match_id", event.MatchID()).
		Time("timestamp", event.Timestamp())

	if obj, ok := event.(zerolog.LogObjectMarshaler); ok {
		z.EmbedObject(obj)
	}
	if ls.devMode {
		if data, err := json.Marshal(event); err == nil {
			z.RawJSON("event_data", data)
		}
	}
	z.Msg("Match event")
}
