package ws

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name     string
		frame    string
		wantErr  bool
		wantType string
		wantBody string
	}{
		{name: "defaults type", frame: `{"message":"hi"}`, wantType: "text", wantBody: "hi"},
		{name: "keeps type", frame: `{"message":"pic","type":"image"}`, wantType: "image", wantBody: "pic"},
		{name: "trims body", frame: `{"message":"  hey  "}`, wantType: "text", wantBody: "hey"},
		{name: "ignores unknown fields", frame: `{"message":"x","extra":1}`, wantType: "text", wantBody: "x"},
		{name: "missing message", frame: `{"type":"text"}`, wantErr: true},
		{name: "blank message", frame: `{"message":"   "}`, wantErr: true},
		{name: "not json", frame: `hello`, wantErr: true},
		{name: "wrong type", frame: `{"message":5}`, wantErr: true},
		{name: "long type", frame: `{"message":"x","type":"` + strings.Repeat("a", 21) + `"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := ParseInbound([]byte(tt.frame))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBody, in.Message)
			assert.Equal(t, tt.wantType, in.Type)
		})
	}
}

func TestParseInboundReturnsValidationErrors(t *testing.T) {
	_, err := ParseInbound([]byte(`{"message":""}`))

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestEncodeMessageEvent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data, err := Encode(MessageEvent{
		Type:       EventMessage,
		ID:         9,
		FromUserID: 1,
		ToUserID:   2,
		SenderName: "Ada",
		Message:    "hello",
		CreatedAt:  at,
	})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "message", got["type"])
	assert.Equal(t, float64(9), got["id"])
	assert.Equal(t, float64(1), got["from_user_id"])
	assert.Equal(t, "Ada", got["sender_name"])
	assert.Equal(t, "hello", got["message"])
	assert.Equal(t, "2026-03-01T12:00:00Z", got["created_at"])
}
