// Package export writes survey responses as flat files.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/mbolis/survey-forms/format"
	"github.com/mbolis/survey-forms/model"
	"github.com/pkg/errors"
)

const anonymous = "anonymous"

// WriteCSV writes one row per submission and one column per question, in
// question order. Cells hold format.Export values; unanswered cells are empty.
func WriteCSV(w io.Writer, questions []model.Question, userAnswers []model.UserAnswer) error {
	out := csv.NewWriter(w)

	header := []string{"id", "user", "submitted_at"}
	fixed := len(header)
	position := make(map[int64]int, len(questions))
	for i, q := range questions {
		header = append(header, q.Label)
		position[q.ID] = i
	}
	if err := out.Write(header); err != nil {
		return errors.Wrap(err, "export.csv.header")
	}

	for _, ua := range userAnswers {
		record := make([]string, len(header))
		record[0] = strconv.FormatInt(ua.ID, 10)
		record[1] = anonymous
		if ua.UserID != nil {
			record[1] = strconv.FormatInt(*ua.UserID, 10)
		}
		record[2] = ua.UpdatedAt.UTC().Format(time.RFC3339)

		for _, a := range ua.Answers {
			i, ok := position[a.QuestionID]
			if !ok {
				continue
			}
			value, err := format.Export(questions[i].Type, a.Value)
			if err != nil {
				return errors.Wrapf(err, "export.csv.answer %d", a.ID)
			}
			record[fixed+i] = value
		}

		if err := out.Write(record); err != nil {
			return errors.Wrap(err, "export.csv.row")
		}
	}

	out.Flush()
	return errors.Wrap(out.Error(), "export.csv.flush")
}
