package routes

import (
	"html/template"
	"net/url"
	"time"

	"github.com/mbolis/survey-forms/format"
	"github.com/mbolis/survey-forms/model"
	"github.com/mbolis/survey-forms/photo"
)

type surveyPayload struct {
	Name             string            `json:"name" validate:"required,max=200"`
	Description      string            `json:"description"`
	Slug             string            `json:"slug" validate:"max=200"`
	Editable         *bool             `json:"editable"`
	Deletable        *bool             `json:"deletable"`
	DuplicateEntry   bool              `json:"duplicate_entry"`
	PrivateResponse  bool              `json:"private_response"`
	CanAnonymousUser bool              `json:"can_anonymous_user"`
	Questions        []questionPayload `json:"questions" validate:"dive"`
}

// survey applies the payload over s; editable and deletable keep their value
// when omitted. An omitted slug keeps the current one unless the name changes.
func (p surveyPayload) survey(s model.Survey) model.Survey {
	if p.Slug != "" || p.Name != s.Name {
		s.Slug = p.Slug
	}
	s.Name = p.Name
	s.Description = p.Description
	if p.Editable != nil {
		s.Editable = *p.Editable
	}
	if p.Deletable != nil {
		s.Deletable = *p.Deletable
	}
	s.DuplicateEntry = p.DuplicateEntry
	s.PrivateResponse = p.PrivateResponse
	s.CanAnonymousUser = p.CanAnonymousUser
	return s
}

type questionPayload struct {
	Key      string             `json:"key" validate:"max=200"`
	Label    string             `json:"label" validate:"required,max=500"`
	Type     model.QuestionType `json:"type"`
	Choices  string             `json:"choices"`
	HelpText string             `json:"help_text"`
	Required *bool              `json:"required"`
	Ordering int                `json:"ordering" validate:"min=0"`
}

// question applies the payload over q; required defaults to true. An omitted
// key keeps the current one unless the label changes.
func (p questionPayload) question(q model.Question) model.Question {
	if p.Key != "" || p.Label != q.Label {
		q.Key = p.Key
	}
	q.Label = p.Label
	q.Type = p.Type
	q.Choices = p.Choices
	q.HelpText = p.HelpText
	q.Required = p.Required == nil || *p.Required
	q.Ordering = p.Ordering
	return q
}

type submissionPayload struct {
	Answers map[string]string `json:"answers" validate:"required"`
}

type userPayload struct {
	Username  string `json:"username" validate:"required,max=150"`
	Email     string `json:"email" validate:"omitempty,email"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	Password  string `json:"password" validate:"required,min=6"`
	IsAdmin   bool   `json:"is_admin"`
}

type questionView struct {
	model.Question
	TypeOrdinal int      `json:"type_ordinal"`
	TypeLabel   string   `json:"type_label"`
	ChoiceList  []string `json:"choice_list"`
}

func newQuestionView(q model.Question) questionView {
	choices := q.ChoiceList()
	if choices == nil {
		choices = []string{}
	}
	return questionView{
		Question:    q,
		TypeOrdinal: int(q.Type),
		TypeLabel:   q.Type.Label(),
		ChoiceList:  choices,
	}
}

type surveyView struct {
	model.Survey
	Questions []questionView `json:"questions"`
}

func newSurveyView(s model.Survey) surveyView {
	v := surveyView{Survey: s, Questions: make([]questionView, len(s.Questions))}
	for i, q := range s.Questions {
		v.Questions[i] = newQuestionView(q)
	}
	return v
}

// surveySummary is what end users see of a survey before opening it.
type surveySummary struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ShareURL    string `json:"share_url"`
}

func newSurveySummary(s model.Survey, baseURL string) surveySummary {
	return surveySummary{
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		ShareURL:    shareURL(baseURL, s.Slug),
	}
}

func shareURL(baseURL, slugValue string) string {
	return baseURL + "/api/surveys/" + url.PathEscape(slugValue)
}

type answerView struct {
	QuestionID int64              `json:"question_id"`
	Key        string             `json:"key"`
	Label      string             `json:"label"`
	Type       model.QuestionType `json:"type"`
	Value      string             `json:"value"`
	Display    template.HTML      `json:"display"`
}

type userAnswerView struct {
	ID        int64        `json:"id"`
	SurveyID  int64        `json:"survey_id"`
	UserID    *int64       `json:"user_id"`
	Photo     string       `json:"photo"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Answers   []answerView `json:"answers"`
}

// userLookup resolves the owner of an answer set.
type userLookup func(id int64) (*model.User, error)

func newUserAnswerView(ua model.UserAnswer, photos photo.Resolver, lookup userLookup) (userAnswerView, error) {
	v := userAnswerView{
		ID:        ua.ID,
		SurveyID:  ua.SurveyID,
		UserID:    ua.UserID,
		CreatedAt: ua.CreatedAt,
		UpdatedAt: ua.UpdatedAt,
		Answers:   make([]answerView, 0, len(ua.Answers)),
	}

	var user *model.User
	if ua.UserID != nil {
		var err error
		if user, err = lookup(*ua.UserID); err != nil {
			return v, err
		}
	}
	v.Photo = photos.URL(user)

	for _, a := range ua.Answers {
		av := answerView{QuestionID: a.QuestionID, Value: a.Value}
		if q := a.Question; q != nil {
			display, err := format.Display(q.Type, a.Value)
			if err != nil {
				return v, err
			}
			av.Key = q.Key
			av.Label = q.Label
			av.Type = q.Type
			av.Display = display
		}
		v.Answers = append(v.Answers, av)
	}
	return v, nil
}
