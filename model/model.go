package model

import (
	"strings"
	"time"
)

type Survey struct {
	ID               int64      `json:"id,omitempty"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Slug             string     `json:"slug"`
	Editable         bool       `json:"editable"`
	Deletable        bool       `json:"deletable"`
	DuplicateEntry   bool       `json:"duplicate_entry"`
	PrivateResponse  bool       `json:"private_response"`
	CanAnonymousUser bool       `json:"can_anonymous_user"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Questions        []Question `json:"questions,omitempty"`
}

// NewSurvey returns a survey with the default flags: editable and deletable,
// single entry, public responses, authenticated users only.
func NewSurvey(name string) Survey {
	return Survey{
		Name:      name,
		Editable:  true,
		Deletable: true,
	}
}

func (s Survey) String() string {
	return s.Name
}

// Question lookup by key, nil if the survey has no such question.
func (s *Survey) Question(key string) *Question {
	for i := range s.Questions {
		if s.Questions[i].Key == key {
			return &s.Questions[i]
		}
	}
	return nil
}

type Question struct {
	ID        int64        `json:"id,omitempty"`
	SurveyID  int64        `json:"survey_id"`
	Key       string       `json:"key"`
	Label     string       `json:"label"`
	Type      QuestionType `json:"type"`
	Choices   string       `json:"choices"`
	HelpText  string       `json:"help_text"`
	Required  bool         `json:"required"`
	Ordering  int          `json:"ordering"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ChoiceList splits the comma delimited choices, dropping blank entries.
func (q Question) ChoiceList() []string {
	var list []string
	for _, c := range strings.Split(q.Choices, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			list = append(list, c)
		}
	}
	return list
}

type UserAnswer struct {
	ID        int64     `json:"id,omitempty"`
	SurveyID  int64     `json:"survey_id"`
	UserID    *int64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Answers   []Answer  `json:"answers"`
}

// Anonymous reports whether the submission has no associated user.
func (ua UserAnswer) Anonymous() bool {
	return ua.UserID == nil
}

// OwnedBy reports whether userID submitted this answer set.
func (ua UserAnswer) OwnedBy(userID int64) bool {
	return ua.UserID != nil && *ua.UserID == userID
}

type Answer struct {
	ID           int64     `json:"id,omitempty"`
	QuestionID   int64     `json:"question_id"`
	UserAnswerID int64     `json:"user_answer_id"`
	Value        string    `json:"value"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Parent question, populated by the store when answers are listed.
	Question *Question `json:"question,omitempty"`
}

type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}
