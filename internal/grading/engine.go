package grading

import (
	"math"

	"go.uber.org/zap"
)

// Status separates graded answers from ones that still need a teacher and
// from ones that could not be graded at all.
type Status string

const (
	StatusGraded  Status = "graded"
	StatusPending Status = "pending"
	StatusInvalid Status = "invalid"
)

// Reasons attached to a Result.
const (
	ReasonCorrect       = "correct"
	ReasonIncorrect     = "incorrect"
	ReasonPartial       = "partial"
	ReasonUnanswered    = "unanswered"
	ReasonMalformed     = "malformed_answer"
	ReasonManual        = "manual_score"
	ReasonAwaitsManual  = "awaiting_manual_score"
	ReasonUnknownType   = "unknown_question_type"
	ReasonMalformedKey  = "malformed_answer_key"
	ReasonWrongKeyShape = "answer_key_mismatch"
)

// Result is the outcome of grading a single question response.
// Invariant: 0 <= PointsAwarded <= MaxScore.
type Result struct {
	IsCorrect     bool    `json:"is_correct"`
	PointsAwarded float64 `json:"points_awarded"`
	MaxScore      float64 `json:"max_score"`
	Status        Status  `json:"status"`
	Reason        string  `json:"reason"`
}

// Strategy grades a single question variant.
type Strategy interface {
	Grade(key AnswerKey, value AnswerValue, maxScore float64, manual *float64) Result
}

// StatementPolicy selects how statement-set answers earn points.
type StatementPolicy string

const (
	// AllOrNothing awards full points only when every statement matches.
	AllOrNothing StatementPolicy = "all_or_nothing"
	// Proportional awards matches/len(key) of the points.
	Proportional StatementPolicy = "proportional"
)

// ParseStatementPolicy falls back to AllOrNothing for unknown input.
func ParseStatementPolicy(s string) StatementPolicy {
	if StatementPolicy(s) == Proportional {
		return Proportional
	}
	return AllOrNothing
}

// Engine options

type EngineOption func(*config)

type config struct {
	StatementPolicy StatementPolicy
	Logger          *zap.Logger
}

func WithStatementPolicy(p StatementPolicy) EngineOption {
	return func(c *config) { c.StatementPolicy = p }
}
func WithLogger(l *zap.Logger) EngineOption { return func(c *config) { c.Logger = l } }

// Engine routes by question type to the correct Strategy.
type Engine struct {
	strategies map[QuestionType]Strategy
	log        *zap.Logger
}

// NewEngine installs built-in strategies.
func NewEngine(opts ...EngineOption) *Engine {
	cfg := &config{StatementPolicy: AllOrNothing}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Engine{
		strategies: map[QuestionType]Strategy{
			TypeSingleChoice: singleChoiceStrategy{},
			TypeStatementSet: statementSetStrategy{policy: cfg.StatementPolicy},
			TypeWeightedSum:  weightedSumStrategy{},
			TypeNumeric:      numericStrategy{},
			TypeFreeText:     freeTextStrategy{},
		},
		log: cfg.Logger,
	}
}

// Score grades value against key. It never panics on malformed input; those
// cases come back as StatusInvalid with zero points and are logged.
func (e *Engine) Score(key AnswerKey, value any, maxScore float64, manual *float64) (res Result) {
	maxScore = sanitizeMax(maxScore)
	defer func() {
		if r := recover(); r != nil {
			e.log.Warn("grading panicked", zap.Any("panic", r))
			res = invalid(maxScore, ReasonMalformedKey)
		}
	}()
	if key == nil {
		e.log.Warn("no answer key to grade against")
		return invalid(maxScore, ReasonUnknownType)
	}
	s, ok := e.strategies[key.Type()]
	if !ok {
		e.log.Warn("no strategy for question type", zap.String("type", string(key.Type())))
		return invalid(maxScore, ReasonUnknownType)
	}
	res = s.Grade(key, DecodeValue(key.Type(), value), maxScore, manual)
	if res.Status == StatusInvalid {
		e.log.Warn("answer could not be graded",
			zap.String("type", string(key.Type())),
			zap.String("reason", res.Reason))
	}
	return res
}

// ScoreQuestion resolves q and grades value against it.
func (e *Engine) ScoreQuestion(q Q, value any, maxScore float64, manual *float64) Result {
	key, err := ResolveKey(q)
	if err != nil {
		e.log.Warn("cannot resolve answer key", zap.String("type", q.Type), zap.Error(err))
		if isUnknownType(err) {
			return invalid(sanitizeMax(maxScore), ReasonUnknownType)
		}
		return invalid(sanitizeMax(maxScore), ReasonMalformedKey)
	}
	return e.Score(key, value, maxScore, manual)
}

// --- Strategies ---

type singleChoiceStrategy struct{}

func (singleChoiceStrategy) Grade(key AnswerKey, value AnswerValue, maxScore float64, _ *float64) Result {
	k, ok := key.(SingleChoiceKey)
	if !ok {
		return invalid(maxScore, ReasonWrongKeyShape)
	}
	correct, ok := k.Correct()
	if !ok {
		return invalid(maxScore, ReasonMalformedKey)
	}
	switch v := value.(type) {
	case TextAnswer:
		s := trimSpace(string(v))
		return binary(s == correct.Label || s == correct.Text, maxScore)
	case NoAnswer:
		return unanswered(maxScore)
	}
	return malformed(maxScore)
}

type statementSetStrategy struct{ policy StatementPolicy }

func (s statementSetStrategy) Grade(key AnswerKey, value AnswerValue, maxScore float64, _ *float64) Result {
	k, ok := key.(StatementSetKey)
	if !ok {
		return invalid(maxScore, ReasonWrongKeyShape)
	}
	if len(k.Statements) == 0 {
		return invalid(maxScore, ReasonMalformedKey)
	}
	var flags FlagsAnswer
	switch v := value.(type) {
	case FlagsAnswer:
		flags = v
	case NoAnswer:
		return unanswered(maxScore)
	default:
		return malformed(maxScore)
	}
	want := k.Flags()
	matches := 0
	for i := 0; i < min(len(flags), len(want)); i++ {
		if flags[i] == want[i] {
			matches++
		}
	}
	all := matches == len(want)
	if s.policy != Proportional || all {
		return binary(all, maxScore)
	}
	res := binary(false, maxScore)
	res.PointsAwarded = clamp(maxScore*float64(matches)/float64(len(want)), 0, maxScore)
	if matches > 0 {
		res.Reason = ReasonPartial
	}
	return res
}

type weightedSumStrategy struct{}

func (weightedSumStrategy) Grade(key AnswerKey, value AnswerValue, maxScore float64, _ *float64) Result {
	k, ok := key.(WeightedSumKey)
	if !ok {
		return invalid(maxScore, ReasonWrongKeyShape)
	}
	switch v := value.(type) {
	case NumberAnswer:
		return binary(float64(v) == k.ExpectedSum(), maxScore)
	case NoAnswer:
		return unanswered(maxScore)
	}
	return malformed(maxScore)
}

// numericStrategy accepts |submitted - correct| <= tolerance, boundary inclusive.
type numericStrategy struct{}

func (numericStrategy) Grade(key AnswerKey, value AnswerValue, maxScore float64, _ *float64) Result {
	k, ok := key.(NumericKey)
	if !ok {
		return invalid(maxScore, ReasonWrongKeyShape)
	}
	switch v := value.(type) {
	case NumberAnswer:
		return binary(withinTolerance(float64(v), k.CorrectValue, k.Tolerance), maxScore)
	case NoAnswer:
		return unanswered(maxScore)
	}
	return malformed(maxScore)
}

// freeTextStrategy never auto-scores; only a manual score grades the answer.
type freeTextStrategy struct{}

func (freeTextStrategy) Grade(key AnswerKey, _ AnswerValue, maxScore float64, manual *float64) Result {
	if _, ok := key.(FreeTextKey); !ok {
		return invalid(maxScore, ReasonWrongKeyShape)
	}
	pts, ok := ClampManual(manual, maxScore)
	if !ok {
		return Result{MaxScore: maxScore, Status: StatusPending, Reason: ReasonAwaitsManual}
	}
	return Result{
		IsCorrect:     pts > 0,
		PointsAwarded: pts,
		MaxScore:      maxScore,
		Status:        StatusGraded,
		Reason:        ReasonManual,
	}
}

// helpers

func binary(correct bool, maxScore float64) Result {
	if correct {
		return Result{IsCorrect: true, PointsAwarded: maxScore, MaxScore: maxScore, Status: StatusGraded, Reason: ReasonCorrect}
	}
	return Result{MaxScore: maxScore, Status: StatusGraded, Reason: ReasonIncorrect}
}

func unanswered(maxScore float64) Result {
	return Result{MaxScore: maxScore, Status: StatusGraded, Reason: ReasonUnanswered}
}

func malformed(maxScore float64) Result {
	return Result{MaxScore: maxScore, Status: StatusGraded, Reason: ReasonMalformed}
}

func invalid(maxScore float64, reason string) Result {
	return Result{MaxScore: maxScore, Status: StatusInvalid, Reason: reason}
}

func sanitizeMax(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
