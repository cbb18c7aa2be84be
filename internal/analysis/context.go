package analysis

import (
	"math"
	"sort"
	"strconv"

	"github.com/mind-engage/mindengage-assessment/internal/assessment"
)

// ContextSpec is a context together with the default points of its
// questions, which the context may override per item.
type ContextSpec struct {
	Context  assessment.Context
	Defaults map[string]float64
}

func NewContextSpec(cx assessment.Context, questions []assessment.Question) ContextSpec {
	defaults := make(map[string]float64, len(questions))
	for _, q := range questions {
		defaults[q.ID] = q.Points
	}
	return ContextSpec{Context: cx, Defaults: defaults}
}

// Scale is the point total a student can reach: the declared total, else the
// sum of effective item points, else DefaultScale.
func (s ContextSpec) Scale() float64 {
	if s.Context.TotalPoints > 0 {
		return s.Context.TotalPoints
	}
	sum := 0.0
	for _, it := range s.Context.Items {
		sum += math.Max(0, s.Context.EffectivePoints(it.QuestionID, s.Defaults[it.QuestionID]))
	}
	if sum > 0 {
		return sum
	}
	return DefaultScale
}

type StudentTotal struct {
	StudentID string  `json:"student_id"`
	Obtained  float64 `json:"obtained"`
	Possible  float64 `json:"possible"`
	Answers   int     `json:"answers"`
	Pending   int     `json:"pending"`
}

type QuestionPerformance struct {
	QuestionID string  `json:"question_id"`
	Label      string  `json:"label"`
	Responses  int     `json:"responses"`
	Obtained   float64 `json:"obtained"`
	Possible   float64 `json:"possible"`
	Percent    float64 `json:"percent"`
}

type ContextSummary struct {
	ContextID    string                 `json:"context_id"`
	Kind         assessment.ContextKind `json:"kind"`
	Students     int                    `json:"students"`
	Mean         float64                `json:"mean"`
	Highest      float64                `json:"highest"`
	Lowest       float64                `json:"lowest"`
	Distribution Histogram              `json:"distribution"`
	Questions    []QuestionPerformance  `json:"questions"`
}

// GradedStudents totals answers per student, ordered by student id.
func GradedStudents(answers []assessment.Answer) []StudentTotal {
	byStudent := map[string]*StudentTotal{}
	for _, a := range answers {
		t, ok := byStudent[a.StudentID]
		if !ok {
			t = &StudentTotal{StudentID: a.StudentID}
			byStudent[a.StudentID] = t
		}
		t.Answers++
		t.Obtained += a.Points()
		t.Possible += a.MaxScore
		if a.PointsAwarded == nil {
			t.Pending++
		}
	}
	out := make([]StudentTotal, 0, len(byStudent))
	for _, t := range byStudent {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out
}

// SummarizeContext reports the class-level view of a context: the
// distribution of student totals and the hit rate of each item.
func SummarizeContext(spec ContextSpec, answers []assessment.Answer) ContextSummary {
	sum := ContextSummary{
		ContextID:    spec.Context.ID,
		Kind:         spec.Context.Kind,
		Distribution: NewHistogram(spec.Scale()),
		Questions:    make([]QuestionPerformance, len(spec.Context.Items)),
	}

	students := GradedStudents(answers)
	sum.Students = len(students)
	if len(students) > 0 {
		sum.Lowest = math.Inf(1)
		total := 0.0
		for _, s := range students {
			total += s.Obtained
			sum.Highest = math.Max(sum.Highest, s.Obtained)
			sum.Lowest = math.Min(sum.Lowest, s.Obtained)
			sum.Distribution.Add(s.Obtained)
		}
		sum.Mean = round1(total / float64(len(students)))
	}

	index := make(map[string]int, len(spec.Context.Items))
	for i, it := range spec.Context.Items {
		sum.Questions[i] = QuestionPerformance{QuestionID: it.QuestionID, Label: "Q" + strconv.Itoa(i+1)}
		if _, dup := index[it.QuestionID]; !dup {
			index[it.QuestionID] = i
		}
	}
	for _, a := range answers {
		i, ok := index[a.QuestionID]
		if !ok {
			continue
		}
		q := &sum.Questions[i]
		q.Responses++
		q.Obtained += a.Points()
		q.Possible += a.MaxScore
	}
	for i := range sum.Questions {
		if q := &sum.Questions[i]; q.Possible > 0 {
			q.Percent = round1(q.Obtained / q.Possible * 100)
		}
	}
	return sum
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
