// Package stars renders the markup of a star rating.
package stars

import (
	"fmt"
	"html/template"
	"strings"
)

// Max is the number of stars of a rating question.
const Max = 5

// Render draws Max stars, the first active of them highlighted.
// active is clamped to [0, Max].
func Render(active int) template.HTML {
	active = max(0, min(active, Max))

	var b strings.Builder
	fmt.Fprintf(&b, `<span class="star-rating" data-rating="%d">`, active)
	for i := 0; i < Max; i++ {
		if i < active {
			b.WriteString(`<i class="star active">&#9733;</i>`)
		} else {
			b.WriteString(`<i class="star">&#9734;</i>`)
		}
	}
	b.WriteString(`</span>`)

	return template.HTML(b.String())
}
