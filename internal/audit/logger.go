package audit

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventSessionStart    EventType = "session_start"
	EventSessionComplete EventType = "session_complete"
	EventSessionSwept    EventType = "session_swept"
)

type Event struct {
	Type      EventType
	SessionID int64
	DishID    int64
	UserID    *int64
	Details   map[string]interface{}
}

// Log emits a lifecycle audit event. These are the commit points of a
// cooking session; everything else is reconstructable from request logs.
func Log(event Event) {
	logger := log.With().
		Str("audit", "lifecycle").
		Str("event_type", string(event.Type)).
		Time("timestamp", time.Now()).
		Int64("session_id", event.SessionID).
		Int64("dish_id", event.DishID).
		Logger()

	if event.UserID != nil {
		logger = logger.With().Int64("user_id", *event.UserID).Logger()
	}

	logEvent := logger.Info()
	for k, v := range event.Details {
		logEvent = addField(logEvent, k, v)
	}
	logEvent.Msg("lifecycle audit event")
}

func addField(e *zerolog.Event, key string, value interface{}) *zerolog.Event {
	switch v := value.(type) {
	case string:
		return e.Str(key, v)
	case int:
		return e.Int(key, v)
	case int64:
		return e.Int64(key, v)
	case bool:
		return e.Bool(key, v)
	default:
		return e.Interface(key, v)
	}
}
