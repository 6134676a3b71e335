package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mbolis/survey-forms/slug"
	"github.com/mbolis/survey-forms/store"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBufferFlush(t *testing.T) {
	buf := NewResponseBuffer()
	buf.Header().Set("content-type", "application/json")
	buf.WriteHeader(http.StatusCreated)
	buf.WriteHeader(http.StatusTeapot)
	_, err := buf.Write([]byte(`{"ok":true}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, buf.Status())
	assert.Equal(t, `{"ok":true}`, string(buf.Body()))

	rec := httptest.NewRecorder()
	require.NoError(t, buf.Flush(rec))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("content-type"))
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
}

func TestResponseBufferImplicitStatus(t *testing.T) {
	buf := NewResponseBuffer()
	assert.Equal(t, 0, buf.Status())
	buf.Write([]byte("x"))
	assert.Equal(t, http.StatusOK, buf.Status())
}

func TestLogStoreError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{errors.Wrap(store.ErrNotFound, "store.get_survey"), http.StatusNotFound},
		{errors.Wrap(store.ErrConflict, "store.insert_survey"), http.StatusConflict},
		{errors.Wrap(slug.ErrEmpty, "store.insert_survey.slug"), http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := httptest.NewRecorder()
		LogStoreError(rec, "test", c.err)
		assert.Equal(t, c.status, rec.Code, c.err.Error())
	}
}

func TestLogStoreErrorEmptySlugAsksForExplicitOne(t *testing.T) {
	rec := httptest.NewRecorder()
	LogStoreError(rec, "create_survey", errors.Wrap(slug.ErrEmpty, "store.insert_survey.slug"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "send an explicit slug")
}

type payload struct {
	Name string `json:"name" validate:"required"`
}

func TestDecodeValid(t *testing.T) {
	var p payload
	require.NoError(t, DecodeValid(strings.NewReader(`{"name":"x"}`), &p))
	assert.Equal(t, "x", p.Name)

	assert.Error(t, DecodeValid(strings.NewReader(`{"name":""}`), &payload{}))
	assert.Error(t, DecodeValid(strings.NewReader(`{`), &payload{}))
}
