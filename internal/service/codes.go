package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	codeAlphabet     = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeRandomLength = 8
	maxCodeAttempts  = 5
)

var codePattern = regexp.MustCompile(`^EVT-[0-9]+-[0-9A-Z]{9,}$`)

// GenerateRegistrationCode builds EVT-<eventId>-<base36 millis><random base36 suffix>
func GenerateRegistrationCode(eventID int64, now time.Time) (string, error) {
	suffix, err := randomBase36(codeRandomLength)
	if err != nil {
		return "", err
	}
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return fmt.Sprintf("EVT-%d-%s%s", eventID, stamp, suffix), nil
}

// NormalizeCode canonicalizes user input and reports whether it can be a registration code
func NormalizeCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code, codePattern.MatchString(code)
}

func randomBase36(n int) (string, error) {
	// 252 is the largest multiple of 36 below 256; larger bytes are rejected to keep the draw uniform
	const limit = 252

	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// uniqueCode regenerates on the rare collision with an existing code
func (s *RegistrationService) uniqueCode(ctx context.Context, eventID int64, now time.Time) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateRegistrationCode(eventID, now)
		if err != nil {
			return "", err
		}
		exists, err := s.registrations.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check registration code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique registration code after %d attempts", maxCodeAttempts)
}
