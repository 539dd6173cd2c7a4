// Package bankparse turns uploaded CSV or JSON question banks into the
// normalized question list stored by the bank repositories. Malformed
// records are dropped, never stored.
package bankparse

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flashbattle-quiz-service/internal/domain"
	"github.com/spf13/cast"
)

// Parse picks the format from the filename: ".csv" is parsed as CSV,
// anything else as JSON.
func Parse(filename, content string) ([]domain.Question, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return ParseCSV(content)
	}
	return ParseJSON(content)
}

var optionColumns = []string{"optionA", "optionB", "optionC", "optionD"}

// ParseCSV reads a header row followed by one question per row. The text,
// optionA, optionB and answer columns are required; without them no
// questions are returned. The answer column is 1-based and may list
// several answers separated by '|'.
func ParseCSV(content string) ([]domain.Question, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, required := range []string{"text", "optionA", "optionB", "answer"} {
		if _, ok := cols[required]; !ok {
			return nil, nil
		}
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var out []domain.Question
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if len(row) < len(header) {
			continue
		}

		options := make([]string, 0, len(optionColumns))
		for i, name := range optionColumns {
			opt := field(row, name)
			// optionA and optionB keep their slot even when blank so
			// answer indices stay aligned with the header.
			if opt == "" && i >= 2 {
				continue
			}
			options = append(options, opt)
		}

		var answers []int
		for _, part := range strings.Split(field(row, "answer"), "|") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 {
				answers = nil
				break
			}
			answers = append(answers, n-1)
		}

		q := domain.Question{
			Topic:       field(row, "topic"),
			Tag:         field(row, "tag"),
			Text:        field(row, "text"),
			Options:     options,
			Answers:     answers,
			Type:        questionType("", answers),
			Explanation: field(row, "explanation"),
		}
		if q.Valid() {
			out = append(out, q)
		}
	}
	return out, nil
}

type rawQuestion struct {
	Topic       string `json:"topic"`
	Tag         string `json:"tag"`
	Text        string `json:"text"`
	Options     []any  `json:"options"`
	Answers     []any  `json:"answers"`
	Answer      any    `json:"answer"`
	Type        string `json:"type"`
	Explanation string `json:"explanation"`
}

// ParseJSON accepts either a bare array of questions or an object with a
// "questions" array. A question without answers defaults to the first option.
func ParseJSON(content string) ([]domain.Question, error) {
	data := []byte(strings.TrimSpace(content))

	var list []rawQuestion
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decode question array: %w", err)
		}
	} else {
		var wrapped struct {
			Questions []rawQuestion `json:"questions"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode question bank: %w", err)
		}
		list = wrapped.Questions
	}

	out := make([]domain.Question, 0, len(list))
	for _, rq := range list {
		options := make([]string, 0, len(rq.Options))
		for _, o := range rq.Options {
			options = append(options, cast.ToString(o))
		}

		var answers []int
		if rq.Answers != nil {
			for _, a := range rq.Answers {
				if n, err := cast.ToIntE(a); err == nil {
					answers = append(answers, n)
				}
			}
		} else if n, err := cast.ToIntE(rq.Answer); err == nil && rq.Answer != nil {
			answers = []int{n}
		}
		if len(answers) == 0 && len(options) >= 1 {
			answers = []int{0}
		}

		q := domain.Question{
			Topic:       rq.Topic,
			Tag:         rq.Tag,
			Text:        rq.Text,
			Options:     options,
			Answers:     answers,
			Type:        questionType(rq.Type, answers),
			Explanation: rq.Explanation,
		}
		if q.Valid() {
			out = append(out, q)
		}
	}
	return out, nil
}

func questionType(declared string, answers []int) string {
	if declared == domain.QuestionSingle || declared == domain.QuestionMulti {
		return declared
	}
	if len(answers) > 1 {
		return domain.QuestionMulti
	}
	return domain.QuestionSingle
}
