package logger

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *structpb.Struct)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var rawEntry json.RawMessage
		if err := decoder.Decode(&rawEntry); err != nil {
			return err
		}

		var logEntry structpb.Struct
		if err := protojson.Unmarshal(rawEntry, &logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// Event returns the event name of an entry.
func Event(le *structpb.Struct) string {
	return le.GetFields()[FieldEvent].GetStringValue()
}

// SessionID returns the session of an entry.
func SessionID(le *structpb.Struct) string {
	return le.GetFields()[FieldSessionID].GetStringValue()
}

// Data returns the event specific fields of an entry.
func Data(le *structpb.Struct) map[string]*structpb.Value {
	return le.GetFields()[FieldData].GetStructValue().GetFields()
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries int        `json:"log_entries"`
	Events     StrCounter `json:"events"`
	Sessions   StrCounter `json:"sessions"`

	Commands *PathCounter `json:"commands"`
	Globs    *PathCounter `json:"globs"`
	Limits   StrCounter   `json:"limits"`
	Errors   StrCounter   `json:"errors"`
}

func NewReport() *Report {
	return &Report{
		Commands: NewPathCounter("command", "result"),
		Globs:    NewPathCounter("pattern", "matched"),
	}
}

func (r *Report) Update(le *structpb.Struct) {
	r.LogEntries++

	event := Event(le)
	r.Events.Increment(event)
	if id := SessionID(le); id != "" {
		r.Sessions.Increment(id)
	}

	data := Data(le)
	switch event {
	case EventCommand:
		r.Commands.Increment(data["command"].GetStringValue(), data["result"].GetStringValue())
	case EventGlob:
		matches := len(data["matches"].GetListValue().GetValues())
		r.Globs.Increment(data["pattern"].GetStringValue(), strconv.FormatBool(matches > 0))
	case EventLimit:
		r.Limits.Increment(data["limit"].GetStringValue())
	case EventError:
		r.Errors.Increment(data["error"].GetStringValue())
	}
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Count returns how many times key was seen.
func (s *StrCounter) Count(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts the number of distinct column tuples seen.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Count returns how many times the tuple was seen.
func (ctr *PathCounter) Count(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	var out []Count
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
