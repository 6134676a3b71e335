package routes

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/survey-forms/httpx"
	"github.com/mbolis/survey-forms/model"
	"github.com/mbolis/survey-forms/stars"
)

const dateLayout = "2006-01-02"

// checkAnswers validates values, keyed by question key, against the questions
// of survey and returns them as answers in question order.
func checkAnswers(survey model.Survey, values map[string]string) ([]model.Answer, error) {
	var result *multierror.Error

	for key := range values {
		if survey.Question(key) == nil {
			result = multierror.Append(result, fmt.Errorf("%s: unknown question", key))
		}
	}

	answers := []model.Answer{}
	for _, q := range survey.Questions {
		value, ok := values[q.Key]
		if !ok || strings.TrimSpace(value) == "" {
			if q.Required {
				result = multierror.Append(result, fmt.Errorf("%s: required", q.Key))
			}
			continue
		}
		if err := checkValue(q, value); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", q.Key, err))
			continue
		}
		answers = append(answers, model.Answer{QuestionID: q.ID, Value: value})
	}

	return answers, result.ErrorOrNil()
}

func checkValue(q model.Question, value string) error {
	value = strings.TrimSpace(value)

	switch q.Type {
	case model.TypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("not a number: %q", value)
		}
	case model.TypeEmail:
		if err := httpx.Validator().Var(value, "email"); err != nil {
			return fmt.Errorf("not an email address: %q", value)
		}
	case model.TypeURL:
		if err := httpx.Validator().Var(value, "url"); err != nil {
			return fmt.Errorf("not a URL: %q", value)
		}
	case model.TypeDate:
		if _, err := time.Parse(dateLayout, value); err != nil {
			return fmt.Errorf("not a date (%s): %q", dateLayout, value)
		}
	case model.TypeRating:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > stars.Max {
			return fmt.Errorf("rating out of 1..%d: %q", stars.Max, value)
		}
	case model.TypeRadio, model.TypeSelect:
		if !slices.Contains(q.ChoiceList(), value) {
			return fmt.Errorf("not a choice: %q", value)
		}
	case model.TypeMultiSelect:
		choices := q.ChoiceList()
		for _, v := range strings.Split(value, ",") {
			if !slices.Contains(choices, strings.TrimSpace(v)) {
				return fmt.Errorf("not a choice: %q", strings.TrimSpace(v))
			}
		}
	}
	return nil
}

type submitter struct {
	surveyID int64
	userID   int64
}

type submitCheck struct {
	acquire  bool
	key      submitter
	acquired chan<- bool
}

// submitGuard tracks submissions in flight, so that a user cannot pass the
// "already answered" check twice for the same survey before either insert
// commits. It stops when its context is done; acquire then always fails.
type submitGuard struct {
	done   <-chan struct{}
	checks chan<- submitCheck
}

func newSubmitGuard(ctx context.Context) submitGuard {
	checks := make(chan submitCheck)
	go func() {
		inFlight := make(map[submitter]bool)

		for {
			select {
			case <-ctx.Done():
				return
			case check := <-checks:
				if ctx.Err() != nil {
					if check.acquire {
						check.acquired <- false
					}
					return
				}
				if check.acquire {
					busy := inFlight[check.key]
					if !busy {
						inFlight[check.key] = true
					}
					check.acquired <- !busy
				} else {
					delete(inFlight, check.key)
				}
			}
		}
	}()
	return submitGuard{ctx.Done(), checks}
}

// acquire returns false if the same submitter is already in flight.
func (g submitGuard) acquire(key submitter) bool {
	acquired := make(chan bool, 1)
	select {
	case g.checks <- submitCheck{true, key, acquired}:
		return <-acquired
	case <-g.done:
		return false
	}
}

func (g submitGuard) release(key submitter) {
	select {
	case g.checks <- submitCheck{false, key, nil}:
	case <-g.done:
	}
}
