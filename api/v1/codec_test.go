package v1

import (
	"testing"

	"github.com/Adam-Blf/abel-assistant/pkg/lib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEventWireShape(t *testing.T) {
	status := lib.NewStatusEvent(true, lib.TransitionStopping)
	s, err := EncodeEvent(lib.Event{Topic: lib.TopicStatus, Status: &status})
	require.NoError(t, err)

	fields := s.GetFields()
	assert.Equal(t, "status", fields["topic"].GetStringValue())
	body := fields["status"].GetStructValue().GetFields()
	assert.True(t, body["running"].GetBoolValue())
	assert.True(t, body["starting"].GetBoolValue())
	assert.Equal(t, "stopping", body["transition"].GetStringValue())
	assert.NotContains(t, fields, "log")

	back, err := DecodeEvent(s)
	require.NoError(t, err)
	assert.Equal(t, status, *back.Status)
}

func TestDecodeEvent_Malformed(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"topic": "log"})
	require.NoError(t, err)

	_, err = DecodeEvent(s)
	assert.Error(t, err)

	_, err = DecodeEvent(nil)
	assert.Error(t, err)
}

func TestDecodeEvent_LogLevel(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{
		"topic": "log",
		"log":   map[string]any{"message": "up", "level": "SUCCESS", "timestamp": "09:05:03.007"},
	})
	require.NoError(t, err)
	e, err := DecodeEvent(s)
	require.NoError(t, err)
	assert.Equal(t, lib.LevelSuccess, e.Log.Level)

	s.Fields["log"].GetStructValue().Fields["level"] = structpb.NewStringValue("loud")
	_, err = DecodeEvent(s)
	assert.Error(t, err)
}

func TestEncodeLinks_Empty(t *testing.T) {
	l, err := EncodeLinks(nil)
	require.NoError(t, err)
	assert.Empty(t, l.GetValues())

	links, err := DecodeLinks(l)
	require.NoError(t, err)
	assert.Empty(t, links)
}
