package logger

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Event names.
const (
	EventStatement = "statement"
	EventGlob      = "glob"
	EventCommand   = "command"
	EventLimit     = "limit"
	EventError     = "error"
)

// Field names shared by every entry.
const (
	FieldEvent           = "event"
	FieldTimestampMicros = "timestamp_micros"
	FieldSessionID       = "session_id"
	FieldData            = "data"
)

// Fields are the event specific values of an entry. Values must be
// representable by structpb: strings, numbers, bools, nil, nested maps and
// []interface{}.
type Fields = map[string]interface{}

// LogRecorder is a callback that stores events in an external datastore.
type LogRecorder func(le *structpb.Struct) error

// Logger captures events from the expansion engine.
type Logger struct {
	Record LogRecorder
}

// NewJsonLinesLogRecorder creates a Logger that exports logs in newline
// delimited JSON object format.
func NewJsonLinesLogRecorder(w io.Writer) *Logger {
	return &Logger{
		Record: func(le *structpb.Struct) error {
			entry, err := protojson.Marshal(le)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(entry))
			return err
		},
	}
}

func (l *Logger) recordEvent(sessionID, event string, fields Fields) error {
	if l == nil || l.Record == nil {
		return nil
	}

	raw := map[string]interface{}{
		FieldEvent:           event,
		FieldTimestampMicros: time.Now().UnixMicro(),
		FieldSessionID:       sessionID,
	}
	if len(fields) > 0 {
		raw[FieldData] = fields
	}

	le, err := structpb.NewStruct(raw)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	return l.Record(le)
}

// NewSession creates a logger with attached session ID.
func (l *Logger) NewSession() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: fmt.Sprintf("%d", rand.Uint64())}
}

// Sessionless creates a logger without a session ID.
func (l *Logger) Sessionless() *SessionLogger {
	return &SessionLogger{Logger: l, sessionID: ""}
}

// SessionLogger logs messages with a shared session ID. A nil SessionLogger
// discards everything.
type SessionLogger struct {
	*Logger
	sessionID string
}

// SessionID returns the ID attached to every entry.
func (l *SessionLogger) SessionID() string {
	if l == nil {
		return ""
	}
	return l.sessionID
}

func (l *SessionLogger) Record(event string, fields Fields) error {
	if l == nil {
		return nil
	}
	return l.recordEvent(l.sessionID, event, fields)
}

// Strings converts a string slice into a list structpb accepts.
func Strings(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
