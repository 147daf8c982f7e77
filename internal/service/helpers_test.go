package service

import (
	"encoding/json"
	"testing"

	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"go.uber.org/zap"
)

func newTestClient(userID, nickname string) *Client {
	return NewClient(userID, model.Profile{UserID: userID, Nickname: nickname}, nil, 32)
}

// drain collects everything queued for the client without blocking.
func drain(t *testing.T, c *Client) []model.Envelope {
	t.Helper()
	var out []model.Envelope
	for {
		select {
		case raw := <-c.Outbox():
			var env model.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("malformed envelope: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

// eventsNamed filters envelopes by event name.
func eventsNamed(envs []model.Envelope, name string) []model.Envelope {
	var out []model.Envelope
	for _, e := range envs {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

func mustUnmarshal(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
}

func testLogger() *zap.Logger { return zap.NewNop() }
