package grading

import (
	"fmt"
	"math"
)

// AnswerKey is the typed correct-answer data of a question. The set of
// implementations is closed: SingleChoiceKey, StatementSetKey, WeightedSumKey,
// NumericKey and FreeTextKey.
type AnswerKey interface {
	Type() QuestionType
	isAnswerKey()
}

type SingleChoiceKey struct {
	Options []Option
}

type StatementSetKey struct {
	Statements []Statement
}

type WeightedSumKey struct {
	Propositions []Proposition
}

type NumericKey struct {
	CorrectValue float64
	Tolerance    float64
}

// FreeTextKey carries an informational reference answer; it is never auto-scored.
type FreeTextKey struct {
	Reference string
}

func (SingleChoiceKey) Type() QuestionType { return TypeSingleChoice }
func (StatementSetKey) Type() QuestionType { return TypeStatementSet }
func (WeightedSumKey) Type() QuestionType  { return TypeWeightedSum }
func (NumericKey) Type() QuestionType      { return TypeNumeric }
func (FreeTextKey) Type() QuestionType     { return TypeFreeText }

func (SingleChoiceKey) isAnswerKey() {}
func (StatementSetKey) isAnswerKey() {}
func (WeightedSumKey) isAnswerKey()  {}
func (NumericKey) isAnswerKey()      {}
func (FreeTextKey) isAnswerKey()     {}

// Correct returns the first option flagged correct.
func (k SingleChoiceKey) Correct() (Option, bool) {
	for _, o := range k.Options {
		if o.IsCorrect {
			return o, true
		}
	}
	return Option{}, false
}

// Flags returns the keyed truth value of each statement, in order.
func (k StatementSetKey) Flags() []bool {
	out := make([]bool, len(k.Statements))
	for i, s := range k.Statements {
		out[i] = s.IsCorrect
	}
	return out
}

// ExpectedSum is the sum of the values of the correct propositions.
func (k WeightedSumKey) ExpectedSum() float64 {
	sum := 0.0
	for _, p := range k.Propositions {
		if p.IsCorrect {
			sum += p.Value
		}
	}
	return sum
}

// ResolveKey normalises a stored question into its typed answer key.
func ResolveKey(q Q) (AnswerKey, error) {
	t, err := ParseType(q.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, q.Type)
	}
	switch t {
	case TypeSingleChoice:
		k := SingleChoiceKey{Options: append([]Option(nil), q.Options...)}
		if _, ok := k.Correct(); !ok {
			return nil, fmt.Errorf("%w: no option flagged correct", ErrMalformedKey)
		}
		return k, nil
	case TypeStatementSet:
		if len(q.Statements) == 0 {
			return nil, fmt.Errorf("%w: no statements", ErrMalformedKey)
		}
		return StatementSetKey{Statements: append([]Statement(nil), q.Statements...)}, nil
	case TypeWeightedSum:
		if len(q.Propositions) == 0 {
			return nil, fmt.Errorf("%w: no propositions", ErrMalformedKey)
		}
		return WeightedSumKey{Propositions: append([]Proposition(nil), q.Propositions...)}, nil
	case TypeNumeric:
		if q.CorrectValue == nil || math.IsNaN(*q.CorrectValue) || math.IsInf(*q.CorrectValue, 0) {
			return nil, fmt.Errorf("%w: missing correct value", ErrMalformedKey)
		}
		if q.Tolerance < 0 || math.IsNaN(q.Tolerance) || math.IsInf(q.Tolerance, 0) {
			return nil, fmt.Errorf("%w: tolerance must be a finite value >= 0", ErrMalformedKey)
		}
		return NumericKey{CorrectValue: *q.CorrectValue, Tolerance: q.Tolerance}, nil
	case TypeFreeText:
		return FreeTextKey{Reference: q.Reference}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, q.Type)
}
