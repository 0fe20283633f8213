// internal/models/profile.go
package models

import "sort"

// QuestionKey identifies a diagnosis questionnaire question the engine understands.
type QuestionKey string

const (
	QuestionBusinessType QuestionKey = "business_type"
	QuestionCompanySize  QuestionKey = "company_size"
	QuestionIndustry     QuestionKey = "industry"
	QuestionPrefecture   QuestionKey = "prefecture"
	QuestionPurpose      QuestionKey = "purpose"
	QuestionAmount       QuestionKey = "amount"
	QuestionExperience   QuestionKey = "experience"
	QuestionBudget       QuestionKey = "budget"
	QuestionEmployees    QuestionKey = "employees"
	QuestionTimeline     QuestionKey = "timeline"
)

type Question struct {
	Key         QuestionKey
	Weight      float64
	Required    bool
	MultiSelect bool
}

// Questions is the closed questionnaire, in display order.
var Questions = []Question{
	{Key: QuestionBusinessType, Weight: 1.5, Required: true},
	{Key: QuestionCompanySize, Weight: 1.2, Required: true},
	{Key: QuestionIndustry, Weight: 1.5, Required: true},
	{Key: QuestionPrefecture, Weight: 1.0, Required: true},
	{Key: QuestionPurpose, Weight: 1.8, Required: true, MultiSelect: true},
	{Key: QuestionAmount, Weight: 1.3, Required: true},
	{Key: QuestionExperience, Weight: 1.0},
	{Key: QuestionBudget, Weight: 1.0},
	{Key: QuestionEmployees, Weight: 0.8},
	{Key: QuestionTimeline, Weight: 0.5},
}

var questionIndex = func() map[QuestionKey]Question {
	idx := make(map[QuestionKey]Question, len(Questions))
	for _, q := range Questions {
		idx[q.Key] = q
	}
	return idx
}()

// LookupQuestion returns the question definition for a raw key.
func LookupQuestion(key string) (Question, bool) {
	q, ok := questionIndex[QuestionKey(key)]
	return q, ok
}

// Weight returns the scoring weight of k, zero for unknown keys.
func (k QuestionKey) Weight() float64 {
	return questionIndex[k].Weight
}

type AnswerKind int

const (
	AnswerScalar AnswerKind = iota
	AnswerMultiSelect
)

// Answer is either a single value or a set of selected values.
type Answer struct {
	Kind   AnswerKind
	Value  string
	Values []string
}

func Scalar(v string) Answer {
	return Answer{Kind: AnswerScalar, Value: v}
}

// MultiSelect builds a set answer; duplicates are dropped and order is normalised.
func MultiSelect(values ...string) Answer {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return Answer{Kind: AnswerMultiSelect, Values: out}
}

func (a Answer) IsEmpty() bool {
	if a.Kind == AnswerMultiSelect {
		return len(a.Values) == 0
	}
	return a.Value == ""
}

// Strings returns the answer as a list regardless of kind.
func (a Answer) Strings() []string {
	if a.Kind == AnswerMultiSelect {
		return a.Values
	}
	if a.Value == "" {
		return nil
	}
	return []string{a.Value}
}

// UserProfile is a validated, possibly partial questionnaire.
type UserProfile struct {
	answers map[QuestionKey]Answer
}

func NewUserProfile() UserProfile {
	return UserProfile{answers: make(map[QuestionKey]Answer)}
}

// Set stores an answer. Unknown keys and empty answers are ignored.
func (p *UserProfile) Set(key QuestionKey, a Answer) {
	if _, ok := questionIndex[key]; !ok || a.IsEmpty() {
		return
	}
	if p.answers == nil {
		p.answers = make(map[QuestionKey]Answer)
	}
	p.answers[key] = a
}

func (p UserProfile) Get(key QuestionKey) (Answer, bool) {
	a, ok := p.answers[key]
	return a, ok
}

// Scalar returns the single value for key, or the first selected value of a multi-select.
func (p UserProfile) Scalar(key QuestionKey) string {
	a, ok := p.answers[key]
	if !ok {
		return ""
	}
	if a.Kind == AnswerMultiSelect {
		if len(a.Values) == 0 {
			return ""
		}
		return a.Values[0]
	}
	return a.Value
}

func (p UserProfile) Len() int {
	return len(p.answers)
}

// Keys returns the answered keys in questionnaire order.
func (p UserProfile) Keys() []QuestionKey {
	keys := make([]QuestionKey, 0, len(p.answers))
	for _, q := range Questions {
		if _, ok := p.answers[q.Key]; ok {
			keys = append(keys, q.Key)
		}
	}
	return keys
}

// Completeness is the share of required questions answered, in percent.
func (p UserProfile) Completeness() float64 {
	required, answered := 0, 0
	for _, q := range Questions {
		if !q.Required {
			continue
		}
		required++
		if _, ok := p.answers[q.Key]; ok {
			answered++
		}
	}
	if required == 0 {
		return 100
	}
	return float64(answered) / float64(required) * 100
}

// MissingRequired lists unanswered required keys in questionnaire order.
func (p UserProfile) MissingRequired() []QuestionKey {
	var missing []QuestionKey
	for _, q := range Questions {
		if q.Required {
			if _, ok := p.answers[q.Key]; !ok {
				missing = append(missing, q.Key)
			}
		}
	}
	return missing
}

// Map returns a JSON-friendly copy of the answers.
func (p UserProfile) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(p.answers))
	for k, a := range p.answers {
		if a.Kind == AnswerMultiSelect {
			out[string(k)] = append([]string(nil), a.Values...)
		} else {
			out[string(k)] = a.Value
		}
	}
	return out
}
