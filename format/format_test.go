package format

import (
	"html/template"
	"strings"
	"testing"
	"unicode"

	"github.com/mbolis/survey-forms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayRatingUsesStars(t *testing.T) {
	var got []int
	saved := renderStars
	renderStars = func(active int) template.HTML {
		got = append(got, active)
		return "stars"
	}
	defer func() { renderStars = saved }()

	html, err := Display(model.TypeRating, "4")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("stars"), html)
	assert.Equal(t, []int{4}, got)
}

func TestDisplayRatingMalformed(t *testing.T) {
	_, err := Display(model.TypeRating, "four")
	assert.Error(t, err)
}

func TestDisplayURL(t *testing.T) {
	html, err := Display(model.TypeURL, "https://example.com/a?b=1")
	require.NoError(t, err)
	assert.Equal(t,
		template.HTML(`<a href="https://example.com/a?b=1" target="_blank" rel="noopener noreferrer">https://example.com/a?b=1</a>`),
		html)
}

func TestDisplayURLEscapesMarkup(t *testing.T) {
	html, err := Display(model.TypeURL, `"><script>alert(1)</script>`)
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>")
	assert.Contains(t, string(html), "&lt;script&gt;")
}

func TestDisplayChoices(t *testing.T) {
	for _, typ := range []model.QuestionType{model.TypeRadio, model.TypeSelect, model.TypeMultiSelect} {
		for _, value := range []string{" blue_sky ", "RED", "dark_green_grass", "x"} {
			html, err := Display(typ, value)
			require.NoError(t, err)
			text := string(html)
			assert.NotContains(t, text, "_")
			assert.True(t, unicode.IsUpper([]rune(text)[0]), text)

			exported, err := Export(typ, value)
			require.NoError(t, err)
			assert.Equal(t, exported, text)
		}
	}
}

func TestSelectScenario(t *testing.T) {
	html, err := Display(model.TypeSelect, " blue_sky ")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("Blue sky"), html)

	text, err := Export(model.TypeSelect, " blue_sky ")
	require.NoError(t, err)
	assert.Equal(t, "Blue sky", text)
}

func TestDisplayOtherTypesKeepValue(t *testing.T) {
	for _, typ := range []model.QuestionType{model.TypeText, model.TypeNumber, model.TypeTextArea, model.TypeEmail, model.TypeDate} {
		html, err := Display(typ, " some_value ")
		require.NoError(t, err)
		assert.Equal(t, template.HTML(" some_value "), html)
	}

	html, err := Display(model.TypeTextArea, "a < b")
	require.NoError(t, err)
	assert.Equal(t, template.HTML("a &lt; b"), html)
}

func TestExportNeverProducesMarkup(t *testing.T) {
	for _, typ := range model.AllQuestionTypes() {
		text, err := Export(typ, " https://example.com ")
		require.NoError(t, err)
		assert.False(t, strings.ContainsAny(text, "<>"), typ.String())
	}

	text, err := Export(model.TypeRating, " 3 ")
	require.NoError(t, err)
	assert.Equal(t, "3", text)
}

func TestEveryTypeIsHandled(t *testing.T) {
	for _, typ := range model.AllQuestionTypes() {
		_, err := Display(typ, "1")
		assert.NoError(t, err, typ.String())
		_, err = Export(typ, "1")
		assert.NoError(t, err, typ.String())
	}

	_, err := Display(model.QuestionType(10), "1")
	assert.ErrorIs(t, err, ErrUnknownType)
	_, err = Export(model.QuestionType(10), "1")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "Blue sky", Normalize(" blue_sky "))
	assert.Equal(t, "Hello world", Normalize("HELLO_WORLD"))
	assert.Equal(t, "Été", Normalize("éTÉ"))
	assert.Equal(t, "", Normalize("   "))
}
