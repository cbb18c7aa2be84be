package grading

import (
	"errors"
	"strings"
)

// QuestionType tags the five answer-key variants.
type QuestionType string

const (
	TypeSingleChoice QuestionType = "single_choice"
	TypeStatementSet QuestionType = "statement_set"
	TypeWeightedSum  QuestionType = "weighted_sum"
	TypeNumeric      QuestionType = "numeric"
	TypeFreeText     QuestionType = "free_text"
)

var (
	ErrUnknownType  = errors.New("unknown question type")
	ErrMalformedKey = errors.New("malformed answer key")
)

// typeAliases maps stored type names (including legacy imports) to a variant.
var typeAliases = map[string]QuestionType{
	"single_choice":   TypeSingleChoice,
	"alternativa":     TypeSingleChoice,
	"mcq_single":      TypeSingleChoice,
	"multiple_choice": TypeSingleChoice,

	"statement_set": TypeStatementSet,
	"afirmacoes":    TypeStatementSet,
	"vf":            TypeStatementSet,
	"true_false":    TypeStatementSet,

	"weighted_sum": TypeWeightedSum,
	"proposicoes":  TypeWeightedSum,
	"somatorio":    TypeWeightedSum,

	"numeric":  TypeNumeric,
	"numerica": TypeNumeric,

	"free_text":    TypeFreeText,
	"dissertativa": TypeFreeText,
	"essay":        TypeFreeText,
}

// ParseType normalises a stored type name.
func ParseType(s string) (QuestionType, error) {
	t, ok := typeAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", ErrUnknownType
	}
	return t, nil
}

// Option is one choice of a single-choice question.
type Option struct {
	Label     string `json:"label" bson:"label"`
	Text      string `json:"text" bson:"text"`
	IsCorrect bool   `json:"is_correct" bson:"is_correct"`
}

// Statement is one true/false item of a statement-set question.
type Statement struct {
	Text      string `json:"text" bson:"text"`
	IsCorrect bool   `json:"is_correct" bson:"is_correct"`
}

// Proposition is one weighted item of a weighted-sum question.
type Proposition struct {
	Text      string  `json:"text" bson:"text"`
	Value     float64 `json:"value" bson:"value"`
	IsCorrect bool    `json:"is_correct" bson:"is_correct"`
}

// Q is a minimal view of a stored question needed for grading.
// Keep this in sync with assessment.Question.
type Q struct {
	Type         string
	Points       float64
	Options      []Option
	Statements   []Statement
	Propositions []Proposition
	CorrectValue *float64
	Tolerance    float64
	Reference    string
}
