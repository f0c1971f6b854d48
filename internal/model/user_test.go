package model

import "testing"

func TestUser_CanAuthenticate(t *testing.T) {
	hash := "$2a$10$abcdefghijklmnopqrstuv"
	empty := ""

	cases := []struct {
		name string
		user User
		want bool
	}{
		{"ハッシュあり", User{PasswordHash: &hash}, true},
		{"ハッシュなし", User{}, false},
		{"空文字のハッシュ", User{PasswordHash: &empty}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.user.CanAuthenticate(); got != tc.want {
				t.Errorf("CanAuthenticate() = %v, want %v", got, tc.want)
			}
		})
	}
}
