package bankparse

import (
	"testing"

	"flashbattle-quiz-service/internal/domain"
)

func TestParseCSV(t *testing.T) {
	content := "\ufefftext,optionA,optionB,optionC,optionD,answer,topic,tag,explanation\n" +
		"Capital of France?,Berlin,Paris,Rome,,2,geo,europe,Paris it is\n" +
		"Even numbers,1,2,3,4,2|4,math,,\n" +
		"Out of range,a,b,,,5,misc,,\n" +
		"Zero answer,a,b,,,0,misc,,\n"

	qs, err := ParseCSV(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 valid questions, got %d: %+v", len(qs), qs)
	}

	first := qs[0]
	if len(first.Options) != 3 || first.Answers[0] != 1 || first.Type != domain.QuestionSingle {
		t.Fatalf("unexpected first question %+v", first)
	}
	if first.Topic != "geo" || first.Tag != "europe" || first.Explanation != "Paris it is" {
		t.Fatalf("metadata not carried: %+v", first)
	}

	second := qs[1]
	if second.Type != domain.QuestionMulti || len(second.Answers) != 2 || second.Answers[0] != 1 || second.Answers[1] != 3 {
		t.Fatalf("unexpected multi question %+v", second)
	}
}

func TestParseCSVWithoutAnswerColumnYieldsNothing(t *testing.T) {
	qs, err := ParseCSV("text,optionA,optionB\nQ,a,b\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(qs) != 0 {
		t.Fatalf("expected no questions, got %d", len(qs))
	}
}

func TestParseJSON(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    int
		check   func(t *testing.T, qs []domain.Question)
	}{
		{
			name:    "bare array",
			content: `[{"text":"Q1","options":["a","b"],"answers":[1]}]`,
			want:    1,
			check: func(t *testing.T, qs []domain.Question) {
				if qs[0].Answers[0] != 1 || qs[0].Type != domain.QuestionSingle {
					t.Fatalf("unexpected %+v", qs[0])
				}
			},
		},
		{
			name:    "wrapped with numeric strings",
			content: `{"questions":[{"text":"Q1","options":[1,2,3],"answers":["0","2"],"topic":"t"}]}`,
			want:    1,
			check: func(t *testing.T, qs []domain.Question) {
				q := qs[0]
				if q.Options[0] != "1" || len(q.Answers) != 2 || q.Type != domain.QuestionMulti || q.Topic != "t" {
					t.Fatalf("unexpected %+v", q)
				}
			},
		},
		{
			name:    "missing answers default to first option",
			content: `[{"text":"Q1","options":["a","b"]}]`,
			want:    1,
			check: func(t *testing.T, qs []domain.Question) {
				if len(qs[0].Answers) != 1 || qs[0].Answers[0] != 0 {
					t.Fatalf("expected default answer 0, got %v", qs[0].Answers)
				}
			},
		},
		{
			name:    "single answer field",
			content: `[{"text":"Q1","options":["a","b","c"],"answer":2}]`,
			want:    1,
			check: func(t *testing.T, qs []domain.Question) {
				if qs[0].Answers[0] != 2 {
					t.Fatalf("expected answer 2, got %v", qs[0].Answers)
				}
			},
		},
		{
			name:    "invalid entries dropped",
			content: `[{"text":"one option","options":["a"]},{"text":"","options":["a","b"]},{"text":"bad index","options":["a","b"],"answers":[7]}]`,
			want:    0,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qs, err := ParseJSON(tc.content)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if len(qs) != tc.want {
				t.Fatalf("expected %d questions, got %d", tc.want, len(qs))
			}
			if tc.check != nil {
				tc.check(t, qs)
			}
		})
	}
}

func TestParsePicksFormatByExtension(t *testing.T) {
	if _, err := Parse("bank.json", "text,optionA"); err == nil {
		t.Fatalf("expected json decode error for csv content")
	}
	qs, err := Parse("BANK.CSV", "text,optionA,optionB,answer\nQ,a,b,1\n")
	if err != nil || len(qs) != 1 {
		t.Fatalf("expected one csv question, got %d (%v)", len(qs), err)
	}
}
