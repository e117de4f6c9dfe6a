package v1

import (
	"encoding/json"
	"fmt"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/Adam-Blf/abel-assistant/pkg/lib/inventory"
	"google.golang.org/protobuf/types/known/structpb"
)

// The payload types carry JSON tags that double as their wire shape; Struct
// and ListValue are built from and read back into that JSON.

func encodeStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeStruct(s *structpb.Struct, v any) error {
	if s == nil {
		return fmt.Errorf("missing payload")
	}
	b, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func encodeList[T any](items []T) (*structpb.ListValue, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	l := &structpb.ListValue{}
	if err := l.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return l, nil
}

func decodeList[T any](l *structpb.ListValue) ([]T, error) {
	if l == nil {
		return nil, nil
	}
	b, err := l.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeEvent(e lib.Event) (*structpb.Struct, error) {
	return encodeStruct(e)
}

// DecodeEvent rejects payloads whose body does not match the topic.
func DecodeEvent(s *structpb.Struct) (lib.Event, error) {
	var e lib.Event
	if err := decodeStruct(s, &e); err != nil {
		return lib.Event{}, fmt.Errorf("failed to decode event: %w", err)
	}
	switch {
	case e.Topic == lib.TopicLog && e.Log != nil:
		level, err := lib.ParseLogLevel(string(e.Log.Level))
		if err != nil {
			return lib.Event{}, fmt.Errorf("malformed log event: %w", err)
		}
		e.Log.Level = level
	case e.Topic == lib.TopicStatus && e.Status != nil:
	default:
		return lib.Event{}, fmt.Errorf("malformed %q event", e.Topic)
	}
	return e, nil
}

func EncodeSnapshot(snap lib.Snapshot) (*structpb.Struct, error) {
	return encodeStruct(snap)
}

func DecodeSnapshot(s *structpb.Struct) (lib.Snapshot, error) {
	var snap lib.Snapshot
	if err := decodeStruct(s, &snap); err != nil {
		return lib.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

func EncodeLinks(links []lib.Link) (*structpb.ListValue, error) {
	return encodeList(links)
}

func DecodeLinks(l *structpb.ListValue) ([]lib.Link, error) {
	return decodeList[lib.Link](l)
}

func EncodeContainers(cs []inventory.Container) (*structpb.ListValue, error) {
	return encodeList(cs)
}

func DecodeContainers(l *structpb.ListValue) ([]inventory.Container, error) {
	return decodeList[inventory.Container](l)
}
