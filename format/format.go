// Package format turns stored answer values into display markup or flat
// export text according to the question type.
package format

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"unicode"

	"github.com/mbolis/survey-forms/model"
	"github.com/mbolis/survey-forms/stars"
	"github.com/pkg/errors"
)

var ErrUnknownType = errors.New("format: unknown question type")

var renderStars = stars.Render

// Display renders value for an HTML page. Every branch escapes the stored
// value before it is wrapped in markup.
func Display(typ model.QuestionType, value string) (template.HTML, error) {
	switch typ {
	case model.TypeRating:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return "", errors.Wrapf(err, "format.rating %q", value)
		}
		return renderStars(n), nil

	case model.TypeURL:
		return Link(value), nil

	case model.TypeRadio, model.TypeSelect, model.TypeMultiSelect:
		return template.HTML(template.HTMLEscapeString(Normalize(value))), nil

	case model.TypeText, model.TypeNumber, model.TypeTextArea, model.TypeEmail, model.TypeDate:
		return template.HTML(template.HTMLEscapeString(value)), nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownType, typ)
}

// Link builds an anchor opening in a new tab, with value escaped as both
// target and text.
func Link(value string) template.HTML {
	escaped := template.HTMLEscapeString(value)
	return template.HTML(`<a href="` + escaped + `" target="_blank" rel="noopener noreferrer">` + escaped + `</a>`)
}

// Export renders value as flat text, e.g. for a spreadsheet cell.
func Export(typ model.QuestionType, value string) (string, error) {
	switch typ {
	case model.TypeRadio, model.TypeSelect, model.TypeMultiSelect:
		return Normalize(value), nil

	case model.TypeText, model.TypeNumber, model.TypeTextArea, model.TypeURL,
		model.TypeEmail, model.TypeDate, model.TypeRating:
		return strings.TrimSpace(value), nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownType, typ)
}

// Normalize trims s, turns underscores into spaces and capitalizes it: first
// letter upper case, the rest lower case.
func Normalize(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "_", " ")

	rs := []rune(s)
	for i, r := range rs {
		if i == 0 {
			rs[i] = unicode.ToUpper(r)
		} else {
			rs[i] = unicode.ToLower(r)
		}
	}
	return string(rs)
}
