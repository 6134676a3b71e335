package routes

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mbolis/survey-forms/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typedSurvey() model.Survey {
	q := func(id int64, key string, typ model.QuestionType, choices string) model.Question {
		return model.Question{ID: id, Key: key, Label: key, Type: typ, Choices: choices}
	}
	return model.Survey{Questions: []model.Question{
		q(1, "age", model.TypeNumber, ""),
		q(2, "mail", model.TypeEmail, ""),
		q(3, "site", model.TypeURL, ""),
		q(4, "born", model.TypeDate, ""),
		q(5, "stars", model.TypeRating, ""),
		q(6, "colour", model.TypeRadio, "red, green"),
		q(7, "size", model.TypeSelect, "s,m,l"),
		q(8, "tags", model.TypeMultiSelect, "a,b,c"),
		q(9, "bio", model.TypeTextArea, ""),
	}}
}

func TestCheckAnswersValid(t *testing.T) {
	answers, err := checkAnswers(typedSurvey(), map[string]string{
		"age":    "41.5",
		"mail":   "ada@example.com",
		"site":   "https://example.com",
		"born":   "1815-12-10",
		"stars":  "5",
		"colour": "green",
		"size":   "m",
		"tags":   "a, c",
		"bio":    "",
	})
	require.NoError(t, err)

	// blank optional answers are not stored
	require.Len(t, answers, 8)
	assert.Equal(t, int64(1), answers[0].QuestionID)
	assert.Equal(t, "a, c", answers[7].Value)
}

func TestCheckAnswersInvalid(t *testing.T) {
	cases := map[string]string{
		"age":    "forty",
		"mail":   "ada",
		"site":   "example",
		"born":   "10/12/1815",
		"stars":  "0",
		"colour": "blue",
		"size":   "xl",
		"tags":   "a,d",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			_, err := checkAnswers(typedSurvey(), map[string]string{key: value})
			require.Error(t, err)
			assert.Contains(t, err.Error(), key+":")
		})
	}
}

func TestCheckAnswersCollectsAllErrors(t *testing.T) {
	survey := typedSurvey()
	survey.Questions[0].Required = true
	survey.Questions[8].Required = true

	_, err := checkAnswers(survey, map[string]string{"bio": " ", "stars": "9", "other": "x"})
	require.Error(t, err)
	for _, msg := range []string{"age: required", "bio: required", "stars: rating", "other: unknown question"} {
		assert.Contains(t, err.Error(), msg)
	}
}

func testGuard(t *testing.T) submitGuard {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return newSubmitGuard(ctx)
}

func TestSubmitGuard(t *testing.T) {
	guard := testGuard(t)
	key := submitter{surveyID: 1, userID: 2}

	assert.True(t, guard.acquire(key))
	assert.False(t, guard.acquire(key))
	assert.True(t, guard.acquire(submitter{surveyID: 1, userID: 3}))

	guard.release(key)
	assert.True(t, guard.acquire(key))
}

func TestSubmitGuardConcurrent(t *testing.T) {
	guard := testGuard(t)
	key := submitter{surveyID: 1, userID: 1}

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if guard.acquire(key) {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, acquired)
}

func TestSubmitGuardStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	guard := newSubmitGuard(ctx)
	key := submitter{surveyID: 1, userID: 1}

	require.True(t, guard.acquire(key))
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		guard.release(key)
		assert.False(t, guard.acquire(submitter{surveyID: 2, userID: 2}))
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("guard blocked after its context was cancelled")
	}
}
