package stars

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	cases := []struct {
		active, want int
	}{
		{0, 0},
		{3, 3},
		{5, 5},
		{9, 5},
		{-2, 0},
	}
	for _, c := range cases {
		html := string(Render(c.active))
		assert.Equal(t, c.want, strings.Count(html, `class="star active"`), c.active)
		assert.Equal(t, Max-c.want, strings.Count(html, `class="star"`), c.active)
		assert.True(t, strings.HasPrefix(html, `<span class="star-rating"`))
	}
}
