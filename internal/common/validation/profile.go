// internal/common/validation/profile.go
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"grant-engine/internal/models"
)

var ErrInvalidProfile = errors.New("invalid profile")

// ProfileError lists the answers that could not be typed.
type ProfileError struct {
	Fields []ValidationError
}

func (e *ProfileError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "invalid profile: " + strings.Join(msgs, "; ")
}

func (e *ProfileError) Unwrap() error {
	return ErrInvalidProfile
}

// ParseProfile turns raw questionnaire answers into a typed profile.
// Unknown keys and empty answers are dropped; answers of the wrong shape fail.
func ParseProfile(raw map[string]interface{}) (models.UserProfile, error) {
	profile := models.NewUserProfile()

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var fields []ValidationError
	for _, key := range keys {
		q, ok := models.LookupQuestion(key)
		if !ok {
			continue
		}
		answer, err := parseAnswer(q, raw[key])
		if err != nil {
			fields = append(fields, ValidationError{Field: key, Message: err.Error(), Code: "INVALID_TYPE"})
			continue
		}
		profile.Set(q.Key, answer)
	}

	if len(fields) > 0 {
		return models.UserProfile{}, &ProfileError{Fields: fields}
	}
	return profile, nil
}

func parseAnswer(q models.Question, value interface{}) (models.Answer, error) {
	switch v := value.(type) {
	case nil:
		return models.Answer{}, nil
	case string:
		if q.MultiSelect {
			return models.MultiSelect(strings.TrimSpace(v)), nil
		}
		return models.Scalar(strings.TrimSpace(v)), nil
	case float64:
		if q.MultiSelect {
			return models.Answer{}, fmt.Errorf("expected a list of strings, got number")
		}
		return models.Scalar(strconv.FormatFloat(v, 'f', -1, 64)), nil
	case []string:
		return listAnswer(q, v)
	case []interface{}:
		values := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return models.Answer{}, fmt.Errorf("item %d: expected string, got %T", i, item)
			}
			values = append(values, s)
		}
		return listAnswer(q, values)
	default:
		return models.Answer{}, fmt.Errorf("expected string, got %T", value)
	}
}

func listAnswer(q models.Question, values []string) (models.Answer, error) {
	for i := range values {
		values[i] = strings.TrimSpace(values[i])
	}
	if q.MultiSelect {
		return models.MultiSelect(values...), nil
	}
	if len(values) > 1 {
		return models.Answer{}, fmt.Errorf("expected a single value, got %d", len(values))
	}
	if len(values) == 0 {
		return models.Answer{}, nil
	}
	return models.Scalar(values[0]), nil
}
