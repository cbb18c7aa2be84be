// Package analysis turns the recorded answers of a question into chart-ready
// item statistics, and the answers of an exam or list into a class summary.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-assessment/internal/assessment"
	"github.com/mind-engage/mindengage-assessment/internal/grading"
)

// Response is the part of a recorded answer the aggregator reads.
type Response struct {
	Value         any
	PointsAwarded *float64
	MaxScore      float64
}

func ResponsesFromAnswers(answers []assessment.Answer) []Response {
	out := make([]Response, len(answers))
	for i, a := range answers {
		out[i] = Response{Value: a.Value, PointsAwarded: a.PointsAwarded, MaxScore: a.MaxScore}
	}
	return out
}

// Bar is one category of a frequency table.
type Bar struct {
	Label   string `json:"label"`
	Count   int    `json:"count"`
	Correct bool   `json:"correct"`
}

// StatementBar is the per-statement difficulty of a statement set.
type StatementBar struct {
	Label            string  `json:"label"`
	PercentCorrect   float64 `json:"percent_correct"`
	PercentIncorrect float64 `json:"percent_incorrect"`
}

type Statistics struct {
	Type        grading.QuestionType `json:"type"`
	Total       int                  `json:"total"`
	Answered    int                  `json:"answered"`
	Unanswered  int                  `json:"unanswered"`
	Unmatched   int                  `json:"unmatched,omitempty"`
	Frequencies []Bar                `json:"frequencies,omitempty"`
	Statements  []StatementBar       `json:"statements,omitempty"`
	Histogram   *Histogram           `json:"histogram,omitempty"`
}

// Aggregate summarises answers against key. It has no side effects and
// returns the same output for the same input.
func Aggregate(key grading.AnswerKey, answers []Response) Statistics {
	if key == nil {
		return Statistics{Total: len(answers)}
	}
	st := Statistics{Type: key.Type(), Total: len(answers)}
	switch k := key.(type) {
	case grading.SingleChoiceKey:
		singleChoice(&st, k, answers)
	case grading.StatementSetKey:
		statementSet(&st, k, answers)
	case grading.WeightedSumKey:
		weightedSum(&st, k, answers)
	case grading.NumericKey:
		numeric(&st, k, answers)
	case grading.FreeTextKey:
		freeText(&st, answers)
	}
	return st
}

func singleChoice(st *Statistics, k grading.SingleChoiceKey, answers []Response) {
	st.Frequencies = make([]Bar, len(k.Options))
	byLabel := make(map[string]int, len(k.Options))
	byText := make(map[string]int, len(k.Options))
	for i, o := range k.Options {
		st.Frequencies[i] = Bar{Label: o.Label, Correct: o.IsCorrect}
		if _, ok := byLabel[o.Label]; !ok {
			byLabel[o.Label] = i
		}
		if _, ok := byText[o.Text]; !ok && o.Text != "" {
			byText[o.Text] = i
		}
	}
	for _, r := range answers {
		v, ok := grading.DecodeValue(grading.TypeSingleChoice, r.Value).(grading.TextAnswer)
		if !ok {
			st.Unanswered++
			continue
		}
		st.Answered++
		s := strings.TrimSpace(string(v))
		if i, ok := byLabel[s]; ok {
			st.Frequencies[i].Count++
		} else if i, ok := byText[s]; ok {
			st.Frequencies[i].Count++
		} else {
			st.Unmatched++
		}
	}
}

func statementSet(st *Statistics, k grading.StatementSetKey, answers []Response) {
	want := k.Flags()
	correct := make([]int, len(want))
	for _, r := range answers {
		if _, ok := grading.DecodeValue(grading.TypeStatementSet, r.Value).(grading.NoAnswer); ok {
			st.Unanswered++
			continue
		}
		st.Answered++
		// A skipped or unreadable position only costs that position.
		marks, _ := grading.Marks(r.Value)
		for i := 0; i < min(len(marks), len(want)); i++ {
			if marks[i] != nil && *marks[i] == want[i] {
				correct[i]++
			}
		}
	}
	st.Statements = make([]StatementBar, len(want))
	for i := range want {
		bar := StatementBar{Label: roman(i + 1)}
		if st.Total > 0 {
			bar.PercentCorrect = float64(correct[i]) / float64(st.Total) * 100
			bar.PercentIncorrect = 100 - bar.PercentCorrect
		}
		st.Statements[i] = bar
	}
}

func weightedSum(st *Statistics, k grading.WeightedSumKey, answers []Response) {
	expected := k.ExpectedSum()
	type row struct {
		value float64
		bar   Bar
	}
	var rows []row
	index := map[string]int{}
	for _, r := range answers {
		switch v := grading.DecodeValue(grading.TypeWeightedSum, r.Value).(type) {
		case grading.NumberAnswer:
			st.Answered++
			label := sumLabel(float64(v))
			if i, ok := index[label]; ok {
				rows[i].bar.Count++
				continue
			}
			index[label] = len(rows)
			rows = append(rows, row{value: float64(v), bar: Bar{Label: label, Count: 1, Correct: float64(v) == expected}})
		case grading.MalformedAnswer:
			st.Answered++
			st.Unmatched++
		default:
			st.Unanswered++
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].value < rows[j].value })
	st.Frequencies = make([]Bar, len(rows))
	for i, r := range rows {
		st.Frequencies[i] = r.bar
	}
}

// numeric highlights only the exact correct value; tolerance is a grading
// concern and is not applied here.
func numeric(st *Statistics, k grading.NumericKey, answers []Response) {
	var bars []Bar
	index := map[string]int{}
	for _, r := range answers {
		decoded := grading.DecodeValue(grading.TypeNumeric, r.Value)
		if _, ok := decoded.(grading.NoAnswer); ok {
			st.Unanswered++
			continue
		}
		st.Answered++
		label := numericLabel(r.Value)
		if i, ok := index[label]; ok {
			bars[i].Count++
			continue
		}
		n, isNum := decoded.(grading.NumberAnswer)
		index[label] = len(bars)
		bars = append(bars, Bar{Label: label, Count: 1, Correct: isNum && float64(n) == k.CorrectValue})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Count > bars[j].Count })
	st.Frequencies = bars
	if st.Frequencies == nil {
		st.Frequencies = []Bar{}
	}
}

// freeText buckets awarded points over the largest max score seen in the
// answers, since contexts may weight the question differently.
func freeText(st *Statistics, answers []Response) {
	observedMax := 0.0
	var eligible []float64
	for _, r := range answers {
		if _, ok := grading.DecodeValue(grading.TypeFreeText, r.Value).(grading.TextAnswer); ok {
			st.Answered++
		} else {
			st.Unanswered++
		}
		if r.PointsAwarded == nil || math.IsNaN(*r.PointsAwarded) || math.IsInf(*r.PointsAwarded, 0) || !(r.MaxScore > 0) {
			continue
		}
		eligible = append(eligible, *r.PointsAwarded)
		observedMax = math.Max(observedMax, r.MaxScore)
	}
	h := NewHistogram(DefaultScale)
	if len(eligible) > 0 {
		h = NewHistogram(observedMax)
		for _, p := range eligible {
			h.Add(p)
		}
	}
	st.Histogram = &h
}

func sumLabel(v float64) string {
	if v == math.Trunc(v) && v >= 0 && v < 100 {
		return fmt.Sprintf("%02d", int(v))
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numericLabel(raw any) string {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	if f, ok := grading.AsNumber(raw); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(raw)
}

var romans = []string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}

func roman(n int) string {
	if n >= 1 && n <= len(romans) {
		return romans[n-1]
	}
	return strconv.Itoa(n)
}
