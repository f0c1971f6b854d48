package model

import (
	"testing"
	"time"
)

func TestSession_IsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"期限前", now.Add(time.Hour), false},
		{"期限ちょうど", now, true},
		{"期限後", now.Add(-time.Second), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &Session{Token: "t", ExpiresAt: tc.expiresAt}
			if got := s.IsExpired(now); got != tc.want {
				t.Errorf("IsExpired() = %v, want %v", got, tc.want)
			}
		})
	}
}
