package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSessionDuration(t *testing.T) {
	cases := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero uses default", 0, DefaultSessionDuration},
		{"one hour kept", time.Hour, time.Hour},
		{"one week kept", 7 * 24 * time.Hour, 7 * 24 * time.Hour},
		{"minimum kept", MinSessionDuration, MinSessionDuration},
		{"maximum kept", MaxSessionDuration, MaxSessionDuration},
		{"one minute raised", time.Minute, MinSessionDuration},
		{"negative raised", -time.Hour, MinSessionDuration},
		{"one year lowered", 365 * 24 * time.Hour, MaxSessionDuration},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, normalizeSessionDuration(tc.in))
		})
	}
}

func TestUserService_SessionDurationFromConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewUserService(nil, UserServiceConfig{SessionDuration: 12 * time.Hour}, logger)
	assert.Equal(t, 12*time.Hour, svc.SessionDuration())

	svc = NewUserService(nil, UserServiceConfig{SessionDuration: time.Second}, logger)
	assert.Equal(t, MinSessionDuration, svc.SessionDuration())
}

func TestWellFormedToken(t *testing.T) {
	token, err := generateSessionToken()
	assert.NoError(t, err)

	assert.True(t, wellFormedToken(token))
	assert.False(t, wellFormedToken(token[:63]), "short")
	assert.False(t, wellFormedToken(token+"0"), "long")
	assert.False(t, wellFormedToken("g"+token[1:]), "non-hex")
}
