package model

import (
	"fmt"
	"strings"
)

// QuestionType selects both the input widget and the answer rendering rule.
// Values are persisted as their ordinal, so the order below must not change.
type QuestionType uint8

const (
	TypeText QuestionType = iota
	TypeNumber
	TypeRadio
	TypeSelect
	TypeMultiSelect
	TypeTextArea
	TypeURL
	TypeEmail
	TypeDate
	TypeRating

	numQuestionTypes = iota
)

var questionTypeNames = [numQuestionTypes]string{
	"text",
	"number",
	"radio",
	"select",
	"multi_select",
	"text_area",
	"url",
	"email",
	"date",
	"rating",
}

var questionTypeLabels = [numQuestionTypes]string{
	"Text",
	"Number",
	"Radio",
	"Select",
	"Multi Select",
	"Text Area",
	"URL",
	"Email",
	"Date",
	"Rating",
}

// AllQuestionTypes lists every type in ordinal order.
func AllQuestionTypes() []QuestionType {
	all := make([]QuestionType, numQuestionTypes)
	for i := range all {
		all[i] = QuestionType(i)
	}
	return all
}

func (t QuestionType) Valid() bool {
	return t < numQuestionTypes
}

func (t QuestionType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("QuestionType(%d)", uint8(t))
	}
	return questionTypeNames[t]
}

// Label is the human readable name shown in admin forms.
func (t QuestionType) Label() string {
	if !t.Valid() {
		return t.String()
	}
	return questionTypeLabels[t]
}

// HasChoices is true for the types answered by picking from Question.Choices.
func (t QuestionType) HasChoices() bool {
	return t == TypeRadio || t == TypeSelect || t == TypeMultiSelect
}

func ParseQuestionType(s string) (QuestionType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range questionTypeNames {
		if name == s {
			return QuestionType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown question type %q", s)
}

func (t QuestionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid question type %d", uint8(t))
	}
	return []byte(questionTypeNames[t]), nil
}

func (t *QuestionType) UnmarshalText(text []byte) (err error) {
	*t, err = ParseQuestionType(string(text))
	return
}
