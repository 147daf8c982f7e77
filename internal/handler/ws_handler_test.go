package handler

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/errs"
	"github.com/wovlf02/Cooperate-Up-sub001/internal/model"
	"go.uber.org/zap"
)

type fakeUserStore struct {
	users map[string]*model.User
}

func (f *fakeUserStore) Get(userID string) (*model.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, errs.ErrUserNotFound
	}
	return u, nil
}

const testSecret = "test-secret"

func mintToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func newTestGateway(users map[string]*model.User) *Gateway {
	return NewGateway(&fakeUserStore{users: users}, nil, nil, nil, GatewayConfig{
		JWTSecret: testSecret,
	}, zap.NewNop())
}

func TestAuthenticate(t *testing.T) {
	g := newTestGateway(map[string]*model.User{
		"u1": {ID: "u1", Nickname: "Alice", Status: model.UserStatusActive},
		"u2": {ID: "u2", Nickname: "Dave", Status: "suspended"},
	})

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"valid active user", mintToken(t, testSecret, "u1"), nil},
		{"unknown user", mintToken(t, testSecret, "u9"), errs.ErrUserNotFound},
		{"inactive user", mintToken(t, testSecret, "u2"), errs.ErrUserInactive},
		{"empty token", "", errs.ErrInvalidToken},
		{"garbage token", "not.a.jwt", errs.ErrInvalidToken},
		{"wrong key", mintToken(t, "other-secret", "u1"), errs.ErrInvalidToken},
		{"no subject", mintToken(t, testSecret, ""), errs.ErrInvalidToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user, err := g.Authenticate(tc.token)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("want success, got %v", err)
				}
				if user.ID != "u1" {
					t.Fatalf("wrong user resolved: %s", user.ID)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	g := newTestGateway(map[string]*model.User{
		"u1": {ID: "u1", Status: model.UserStatusActive},
	})
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Authenticate(s); !errors.Is(err, errs.ErrInvalidToken) {
		t.Fatalf("expired token must be rejected, got %v", err)
	}
}

func TestErrorCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{errs.ErrNotAMember, "not_a_member"},
		{errs.ErrRoomNotFound, "room_not_found"},
		{errs.ErrMessageNotFound, "message_not_found"},
		{errs.ErrPeerUnreachable, "peer_unreachable"},
		{errs.ErrScreenShareHeld, "screen_share_held"},
		{errors.New("boom"), "internal"},
	}
	for _, tc := range tests {
		if got := errorCode(tc.err); got != tc.code {
			t.Errorf("errorCode(%v) = %s, want %s", tc.err, got, tc.code)
		}
	}
}
