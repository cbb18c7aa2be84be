package grading

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// AnswerValue is a submitted answer decoded for its question type. The set of
// implementations is closed: NoAnswer, TextAnswer, FlagsAnswer, NumberAnswer
// and MalformedAnswer.
type AnswerValue interface {
	isAnswerValue()
}

// NoAnswer marks a missing or empty submission.
type NoAnswer struct{}

// TextAnswer is a label/text (single-choice) or essay (free-text) submission.
type TextAnswer string

// FlagsAnswer is one boolean per statement (statement-set).
type FlagsAnswer []bool

// NumberAnswer is a weighted sum or numeric submission.
type NumberAnswer float64

// MalformedAnswer is a payload that cannot be read as the expected shape.
type MalformedAnswer struct {
	Raw any
}

func (NoAnswer) isAnswerValue()        {}
func (TextAnswer) isAnswerValue()      {}
func (FlagsAnswer) isAnswerValue()     {}
func (NumberAnswer) isAnswerValue()    {}
func (MalformedAnswer) isAnswerValue() {}

// DecodeValue coerces a JSON or BSON decoded payload into the variant that
// question type t expects.
func DecodeValue(t QuestionType, raw any) AnswerValue {
	if v, ok := raw.(AnswerValue); ok {
		return v
	}
	if isNil(raw) {
		return NoAnswer{}
	}
	switch t {
	case TypeSingleChoice, TypeFreeText:
		s, ok := asText(raw)
		if !ok {
			return MalformedAnswer{Raw: raw}
		}
		if strings.TrimSpace(s) == "" {
			return NoAnswer{}
		}
		return TextAnswer(s)
	case TypeStatementSet:
		rv := reflect.ValueOf(raw)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return MalformedAnswer{Raw: raw}
		}
		if rv.Len() == 0 {
			return NoAnswer{}
		}
		flags := make(FlagsAnswer, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			b, ok := asBool(rv.Index(i).Interface())
			if !ok {
				return MalformedAnswer{Raw: raw}
			}
			flags[i] = b
		}
		return flags
	case TypeWeightedSum, TypeNumeric:
		if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
			return NoAnswer{}
		}
		f, ok := AsNumber(raw)
		if !ok {
			return MalformedAnswer{Raw: raw}
		}
		return NumberAnswer(f)
	}
	return MalformedAnswer{Raw: raw}
}

// AsNumber reads numeric kinds, json.Number and strictly numeric strings.
func AsNumber(raw any) (float64, bool) {
	if n, ok := raw.(json.Number); ok {
		return parseFloatStrict(n.String())
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case reflect.String:
		return parseFloatStrict(rv.String())
	}
	return 0, false
}

func parseFloatStrict(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asText(raw any) (string, bool) {
	if n, ok := raw.(json.Number); ok {
		return n.String(), true
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		f, ok := AsNumber(raw)
		if !ok {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// Marks reads a statement-set payload position by position. Positions that
// are not booleans come back nil. ok is false unless raw is a non-empty list.
func Marks(raw any) (marks []*bool, ok bool) {
	if isNil(raw) {
		return nil, false
	}
	rv := reflect.ValueOf(raw)
	if (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() == 0 {
		return nil, false
	}
	marks = make([]*bool, rv.Len())
	for i := range marks {
		if b, ok := asBool(rv.Index(i).Interface()); ok {
			marks[i] = &b
		}
	}
	return marks, true
}

func asBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

func isNil(raw any) bool {
	if raw == nil {
		return true
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
