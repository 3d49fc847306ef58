package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEventEmbedsRawPayload(t *testing.T) {
	raw := json.RawMessage(`{"id":"1","text":"hi","user":"A","timestamp":"2024-05-01T10:00:00Z"}`)

	frame, err := EncodeEvent(EventMessage, raw)
	require.NoError(t, err)

	assert.JSONEq(t, `{"event":"message","data":{"id":"1","text":"hi","user":"A","timestamp":"2024-05-01T10:00:00Z"}}`, string(frame))
}

func TestEncodeEventMarshalsValues(t *testing.T) {
	frame, err := EncodeEvent(EventConnect, map[string]string{"sid": "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"connect","data":{"sid":"abc"}}`, string(frame))

	frame, err = EncodeEvent(EventPong, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"pong"}`, string(frame))
}

func TestEncodeEventRejectsUnmarshalable(t *testing.T) {
	_, err := EncodeEvent(EventMessage, make(chan int))
	assert.Error(t, err)
}

func TestDecodeEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantName string
		wantData string
		wantErr  bool
	}{
		{name: "message", raw: `{"event":"message","data":{"text":"hi"}}`, wantName: "message", wantData: `{"text":"hi"}`},
		{name: "no data", raw: `{"event":"ping"}`, wantName: "ping"},
		{name: "scalar data", raw: `{"event":"message","data":"hi"}`, wantName: "message", wantData: `"hi"`},
		{name: "missing name", raw: `{"data":{}}`, wantErr: true},
		{name: "not json", raw: `hello`, wantErr: true},
		{name: "invalid utf-8 in payload", raw: "{\"event\":\"message\",\"data\":{\"text\":\"\xff\xfe\"}}", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ev, err := DecodeEvent([]byte(tc.raw))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrBadEnvelope)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantName, ev.Name)
			assert.Equal(t, tc.wantData, string(ev.Data))
		})
	}
}
