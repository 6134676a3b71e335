package slug

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapFinder holds value -> id per target.
type mapFinder struct {
	rows    map[Target]map[string]int64
	queries int
	err     error
}

func newMapFinder() *mapFinder {
	return &mapFinder{rows: map[Target]map[string]int64{}}
}

func (f *mapFinder) put(target Target, value string, id int64) {
	if f.rows[target] == nil {
		f.rows[target] = map[string]int64{}
	}
	f.rows[target][value] = id
}

func (f *mapFinder) FindID(_ context.Context, target Target, value string) (int64, bool, error) {
	f.queries++
	if f.err != nil {
		return 0, false, f.err
	}
	id, ok := f.rows[target][value]
	return id, ok, nil
}

type alwaysFound struct{}

func (alwaysFound) FindID(context.Context, Target, string) (int64, bool, error) {
	return 99, true, nil
}

var surveys = Target{Table: "survey"}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in, out string
	}{
		{"Customer Satisfaction", "customer-satisfaction"},
		{"  Hello,   World!  ", "hello-world"},
		{"already-a-slug", "already-a-slug"},
		{"Multi -- dash", "multi-dash"},
		{"snake_case Name", "snake_case-name"},
		{"Café Crème", "cafe-creme"},
		{"Q&A 2024", "qa-2024"},
		{"!!!", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.out, Slugify(c.in), c.in)
	}
}

func TestTargetColumn(t *testing.T) {
	assert.Equal(t, "slug", surveys.Column())
	assert.Equal(t, "key", Target{Table: "question", Field: "key"}.Column())
	assert.Equal(t, "question.key", Target{Table: "question", Field: "key"}.String())
}

func TestUniqueFreeCandidate(t *testing.T) {
	g := NewGenerator()
	finder := newMapFinder()

	s, err := g.Unique(context.Background(), finder, surveys, "Customer Satisfaction", 0)
	require.NoError(t, err)
	assert.Equal(t, "customer-satisfaction", s)
	assert.Equal(t, 1, finder.queries)
}

func TestUniqueCollision(t *testing.T) {
	g := NewGenerator()
	finder := newMapFinder()
	finder.put(surveys, "customer-satisfaction", 1)

	s, err := g.Unique(context.Background(), finder, surveys, "Customer Satisfaction", 0)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^customer-satisfaction-[a-z]{1,10}-1$`), s)
}

func TestUniqueNeverReturnsExisting(t *testing.T) {
	g := NewGenerator()
	finder := newMapFinder()
	finder.put(surveys, "poll", 1)

	for i := int64(2); i < 50; i++ {
		s, err := g.Unique(context.Background(), finder, surveys, "Poll", 0)
		require.NoError(t, err)
		_, taken := finder.rows[surveys][s]
		require.False(t, taken, s)
		finder.put(surveys, s, i)
	}
}

func TestUniqueSameRowIsNoop(t *testing.T) {
	g := NewGenerator()
	finder := newMapFinder()
	finder.put(surveys, "customer-satisfaction", 5)

	s, err := g.Unique(context.Background(), finder, surveys, "customer-satisfaction", 5)
	require.NoError(t, err)
	assert.Equal(t, "customer-satisfaction", s)
}

func TestUniqueTargetsAreIndependent(t *testing.T) {
	g := NewGenerator()
	finder := newMapFinder()
	finder.put(surveys, "age", 1)

	keys := Target{Table: "question", Field: "key"}
	s, err := g.Unique(context.Background(), finder, keys, "Age", 0)
	require.NoError(t, err)
	assert.Equal(t, "age", s)
}

func TestUniqueSuffixLength(t *testing.T) {
	var lengths []int
	g := NewGenerator()
	g.letters = func(n int) string {
		lengths = append(lengths, n)
		return strings.Repeat("x", n)
	}

	finder := newMapFinder()
	finder.put(surveys, "abc", 1)
	finder.put(surveys, "abc-xxx-1", 2)

	s, err := g.Unique(context.Background(), finder, surveys, "abc", 0)
	require.NoError(t, err)
	assert.Equal(t, "abc-xxxxxxxxx-2", s)
	// length follows the previous candidate, capped at 10
	assert.Equal(t, []int{3, 9}, lengths)

	lengths = nil
	finder.put(surveys, "customer-satisfaction", 3)
	s, err = g.Unique(context.Background(), finder, surveys, "customer satisfaction", 0)
	require.NoError(t, err)
	assert.Equal(t, "customer-satisfaction-xxxxxxxxxx-1", s)
	assert.Equal(t, []int{10}, lengths)
}

func TestUniqueEmpty(t *testing.T) {
	_, err := NewGenerator().Unique(context.Background(), newMapFinder(), surveys, " ?! ", 0)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestUniqueExhausted(t *testing.T) {
	g := NewGenerator()
	g.MaxAttempts = 3
	_, err := g.Unique(context.Background(), alwaysFound{}, surveys, "busy", 0)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestUniqueFinderError(t *testing.T) {
	finder := newMapFinder()
	finder.err = errors.New("db down")
	_, err := NewGenerator().Unique(context.Background(), finder, surveys, "anything", 0)
	assert.EqualError(t, err, "db down")
}
