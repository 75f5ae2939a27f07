package service

import (
	"strings"
	"testing"

	"github.com/DukeRupert/fetch/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		wantErr  string // substring of the message; empty means valid
	}{
		{"empty", "", "at least 8"},
		{"seven characters", "abc1234", "at least 8"},
		{"exactly eight", "abcd1234", ""},
		{"bcrypt limit", strings.Repeat("a", 71) + "1", ""},
		{"over bcrypt limit", strings.Repeat("a", 72) + "1", "72 characters"},
		{"digits only", "12345678", "letter"},
		{"symbols and digits", "!@#$1234", "letter"},
		{"letters only", "abcdefgh", "number"},
		{"letters and symbols", "abcd!@#$", "number"},
		{"common", "password1", "too common"},
		{"common any case", "Qwerty123", "too common"},
		{"common with capitals", "SUNSHINE1", "too common"},
		{"unicode letters", "café2024x", ""},
		{"passphrase", "fetch my 6 best shots", ""},
		{"mixed", "MyS3cur3Pass", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.password)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
			assert.Contains(t, domain.ErrorMessage(err), tc.wantErr)
		})
	}
}

func TestValidatePassword_LengthCheckedFirst(t *testing.T) {
	// A short common password reports length, not commonness.
	err := validatePassword("abc1")
	assert.Contains(t, domain.ErrorMessage(err), "at least 8")
}
