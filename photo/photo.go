// Package photo resolves the profile picture URL shown next to a response.
package photo

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/mbolis/survey-forms/model"
)

const DefaultPlaceholder = "https://cdn.pixabay.com/photo/2015/10/05/22/37/blank-profile-picture-973460_960_720.png"

// Strategy selects how a user's photo URL is derived.
type Strategy int

const (
	// Placeholder always yields the placeholder image.
	Placeholder Strategy = iota
	// Profile uses the avatar URL stored with the user.
	Profile
	// Gravatar derives the URL from the user's email address.
	Gravatar
)

var strategyNames = map[Strategy]string{
	Placeholder: "default",
	Profile:     "profile",
	Gravatar:    "gravatar",
}

func ParseStrategy(s string) (Strategy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for st, name := range strategyNames {
		if name == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown photo strategy %q (want default, profile or gravatar)", s)
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) (err error) {
	*s, err = ParseStrategy(string(text))
	return
}

type Resolver struct {
	Strategy    Strategy
	Placeholder string
}

// URL returns the photo of u, the placeholder for anonymous users or when the
// strategy has nothing to go on.
func (r Resolver) URL(u *model.User) string {
	if u == nil {
		return r.placeholder()
	}

	switch r.Strategy {
	case Profile:
		if u.AvatarURL != "" {
			return u.AvatarURL
		}
	case Gravatar:
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email != "" {
			sum := md5.Sum([]byte(email))
			return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) +
				"?d=" + url.QueryEscape("mp")
		}
	}
	return r.placeholder()
}

func (r Resolver) placeholder() string {
	if r.Placeholder == "" {
		return DefaultPlaceholder
	}
	return r.Placeholder
}
