// Package slug derives URL-safe identifiers from human strings and makes them
// unique against a persistent store.
package slug

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultField       = "slug"
	DefaultMaxAttempts = 100

	maxSuffixLen = 10
)

var (
	ErrEmpty     = errors.New("slug: candidate has no usable characters")
	ErrExhausted = errors.New("slug: no free value found")
)

var (
	reInvalid    = regexp.MustCompile(`[^\w\s-]`)
	reSeparators = regexp.MustCompile(`[-\s]+`)
)

// Slugify lowercases s, folds accents, drops anything that is not a letter,
// digit, underscore, space or hyphen, and collapses separator runs into "-".
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn))), s)
	if err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = reInvalid.ReplaceAllLiteralString(s, "")
	s = reSeparators.ReplaceAllLiteralString(s, "-")
	return strings.Trim(s, "-_")
}

// Target names the entity table and unique column a value is checked against.
type Target struct {
	Table string
	Field string
}

// Column returns the unique column, DefaultField when unset.
func (t Target) Column() string {
	if t.Field == "" {
		return DefaultField
	}
	return t.Field
}

func (t Target) String() string {
	return t.Table + "." + t.Column()
}

// Finder looks up the row holding value in target, if any.
type Finder interface {
	FindID(ctx context.Context, target Target, value string) (id int64, found bool, err error)
}

type Generator struct {
	// MaxAttempts bounds the number of suffixed candidates tried.
	MaxAttempts int

	letters func(n int) string
}

func NewGenerator() *Generator {
	return &Generator{
		MaxAttempts: DefaultMaxAttempts,
		letters:     randomLetters,
	}
}

// Unique returns a value for target.Column() that no other row holds.
// id is the row being saved, 0 for new rows: a match on the row itself is not
// a collision.
func (g *Generator) Unique(ctx context.Context, finder Finder, target Target, candidate string, id int64) (string, error) {
	origin := Slugify(candidate)
	if origin == "" {
		return "", ErrEmpty
	}

	unique := origin
	for n := 1; ; n++ {
		foundID, found, err := finder.FindID(ctx, target, unique)
		if err != nil {
			return "", err
		}
		if !found || foundID == id {
			return unique, nil
		}
		if n > g.maxAttempts() {
			return "", fmt.Errorf("%w: %s %q after %d attempts", ErrExhausted, target, origin, n-1)
		}

		suffix := g.randomLetters(min(len(unique), maxSuffixLen))
		unique = fmt.Sprintf("%s-%s-%d", origin, suffix, n)
	}
}

func (g *Generator) maxAttempts() int {
	if g.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return g.MaxAttempts
}

func (g *Generator) randomLetters(n int) string {
	if g.letters == nil {
		return randomLetters(n)
	}
	return g.letters(n)
}

func randomLetters(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + rand.IntN(26))
	}
	return string(b)
}
