package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timePattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

const (
	defaultScaleMin    = 1
	defaultScaleMax    = 10
	minSignatureLength = 10
)

// Product default for a RATING with no bounds: a five star widget.
// Questions set min/max in their validation to widen it.
const (
	defaultRatingMin = 1
	defaultRatingMax = 5
)

// IsEmptyValue applies the emptiness rule: nil, a blank string, an empty
// array, or an empty object (except for file uploads, whose shape is checked
// by the file normalizer instead).
func IsEmptyValue(t QuestionType, v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []interface{}:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]interface{}:
		return len(x) == 0 && t != TypeFileUpload
	}
	return false
}

// NormalizeAnswer returns the canonical stored value for one answer. An
// empty optional answer normalizes to nil. Unknown question types pass the
// value through unchanged.
func NormalizeAnswer(q *QuestionSchema, raw interface{}) (interface{}, error) {
	if IsEmptyValue(q.Type, raw) {
		if q.Required {
			return nil, requiredMissing(q)
		}
		return nil, nil
	}
	normalize := normalizerFor(q.Type)
	if normalize == nil {
		return raw, nil
	}
	return normalize(q, raw)
}

type normalizeFunc func(q *QuestionSchema, raw interface{}) (interface{}, error)

func normalizerFor(t QuestionType) normalizeFunc {
	switch t {
	case TypeShortText, TypeLongText, TypePhone, TypeURL:
		return normalizeText
	case TypeEmail:
		return normalizeEmail
	case TypeNumber:
		return normalizeNumber
	case TypeScale:
		return normalizeScale
	case TypeRating:
		return normalizeRating
	case TypeDate:
		return normalizeDate
	case TypeTime:
		return normalizeTime
	case TypeDropdown, TypeMultipleChoice:
		return normalizeSingleChoice
	case TypeCheckboxes:
		return normalizeCheckboxes
	case TypeFileUpload:
		return normalizeFileUpload
	case TypeSignature:
		return normalizeSignature
	case TypeMatrix:
		return normalizeMatrix
	}
	return nil
}

// scalarText accepts strings, and numbers or booleans printed as text.
func scalarText(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case float64:
		return formatNumber(v), true
	case bool:
		return fmt.Sprint(v), true
	}
	return "", false
}

func normalizeText(q *QuestionSchema, raw interface{}) (interface{}, error) {
	s, ok := scalarText(raw)
	if !ok {
		return nil, invalidAnswer(q, "La respuesta para '%s' debe ser texto.", q.Title)
	}
	length := utf8.RuneCountInString(s)
	if q.Rules.MinLength != nil && length < *q.Rules.MinLength {
		return nil, invalidAnswer(q, "La respuesta para '%s' debe tener al menos %d caracteres.", q.Title, *q.Rules.MinLength)
	}
	if q.Rules.MaxLength != nil && length > *q.Rules.MaxLength {
		return nil, invalidAnswer(q, "La respuesta para '%s' no debe exceder %d caracteres.", q.Title, *q.Rules.MaxLength)
	}
	if q.Rules.pattern != nil && !q.Rules.pattern.MatchString(s) {
		return nil, invalidAnswer(q, "La respuesta para '%s' no tiene el formato esperado.", q.Title)
	}
	return s, nil
}

func normalizeEmail(q *QuestionSchema, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok || !emailPattern.MatchString(s) {
		return nil, invalidAnswer(q, "El formato de email para '%s' es inválido.", q.Title)
	}
	return s, nil
}

func normalizeNumber(q *QuestionSchema, raw interface{}) (interface{}, error) {
	n, ok := toNumber(raw)
	if !ok {
		return nil, invalidAnswer(q, "La respuesta para '%s' debe ser un número válido.", q.Title)
	}
	if q.Rules.Min != nil && n < *q.Rules.Min {
		return nil, invalidAnswer(q, "La respuesta para '%s' debe ser al menos %s.", q.Title, formatNumber(*q.Rules.Min))
	}
	if q.Rules.Max != nil && n > *q.Rules.Max {
		return nil, invalidAnswer(q, "La respuesta para '%s' no debe exceder %s.", q.Title, formatNumber(*q.Rules.Max))
	}
	return n, nil
}

func normalizeScale(q *QuestionSchema, raw interface{}) (interface{}, error) {
	return normalizeBounded(q, raw, defaultScaleMin, defaultScaleMax)
}

func normalizeRating(q *QuestionSchema, raw interface{}) (interface{}, error) {
	return normalizeBounded(q, raw, defaultRatingMin, defaultRatingMax)
}

func normalizeBounded(q *QuestionSchema, raw interface{}, defMin, defMax float64) (interface{}, error) {
	n, ok := toNumber(raw)
	if !ok {
		return nil, invalidAnswer(q, "La respuesta para '%s' debe ser un número válido.", q.Title)
	}
	lo, hi := defMin, defMax
	if q.Rules.Min != nil {
		lo = *q.Rules.Min
	}
	if q.Rules.Max != nil {
		hi = *q.Rules.Max
	}
	if n < lo || n > hi {
		return nil, invalidAnswer(q, "La respuesta para '%s' debe estar entre %s y %s.", q.Title, formatNumber(lo), formatNumber(hi))
	}
	return n, nil
}

func validDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func normalizeDate(q *QuestionSchema, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok || !validDate(s) {
		return nil, invalidAnswer(q, "La fecha para '%s' no es válida. Usa el formato AAAA-MM-DD.", q.Title)
	}
	// YYYY-MM-DD compares chronologically as text
	if q.Rules.MinDate != "" && s < q.Rules.MinDate {
		return nil, invalidAnswer(q, "La fecha para '%s' no puede ser anterior a %s.", q.Title, q.Rules.MinDate)
	}
	if q.Rules.MaxDate != "" && s > q.Rules.MaxDate {
		return nil, invalidAnswer(q, "La fecha para '%s' no puede ser posterior a %s.", q.Title, q.Rules.MaxDate)
	}
	return s, nil
}

func normalizeTime(q *QuestionSchema, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok || !timePattern.MatchString(s) {
		return nil, invalidAnswer(q, "La hora para '%s' no es válida. Usa el formato HH:mm.", q.Title)
	}
	if q.Rules.MinTime != "" && s < q.Rules.MinTime {
		return nil, invalidAnswer(q, "La hora para '%s' no puede ser anterior a %s.", q.Title, q.Rules.MinTime)
	}
	if q.Rules.MaxTime != "" && s > q.Rules.MaxTime {
		return nil, invalidAnswer(q, "La hora para '%s' no puede ser posterior a %s.", q.Title, q.Rules.MaxTime)
	}
	return s, nil
}

func normalizeSingleChoice(q *QuestionSchema, raw interface{}) (interface{}, error) {
	s, ok := scalarText(raw)
	if !ok || !q.hasOption(s) {
		return nil, invalidAnswer(q, "La opción seleccionada para '%s' no es válida.", q.Title)
	}
	return s, nil
}

func normalizeCheckboxes(q *QuestionSchema, raw interface{}) (interface{}, error) {
	var items []interface{}
	switch v := raw.(type) {
	case []interface{}:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		return nil, invalidAnswer(q, "La respuesta para '%s' debe ser una lista de opciones.", q.Title)
	}

	selected := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := scalarText(item)
		if !ok || !q.hasOption(s) {
			return nil, invalidAnswer(q, "Una o más opciones seleccionadas para '%s' no son válidas.", q.Title)
		}
		selected = append(selected, s)
	}
	return selected, nil
}

func normalizeFileUpload(q *QuestionSchema, raw interface{}) (interface{}, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok || nonEmptyString(obj["fileName"]) == "" || nonEmptyString(obj["fileUrl"]) == "" {
		return nil, invalidAnswer(q, "El archivo para '%s' no es válido.", q.Title)
	}
	return obj, nil
}

func nonEmptyString(v interface{}) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func normalizeSignature(q *QuestionSchema, raw interface{}) (interface{}, error) {
	s, ok := raw.(string)
	if !ok || utf8.RuneCountInString(s) < minSignatureLength {
		return nil, invalidAnswer(q, "La firma para '%s' no es válida.", q.Title)
	}
	return s, nil
}

func normalizeMatrix(q *QuestionSchema, raw interface{}) (interface{}, error) {
	obj, ok := raw.(map[string]interface{})
	if !ok || len(obj) == 0 {
		return nil, invalidAnswer(q, "La respuesta para '%s' debe completar la tabla.", q.Title)
	}
	return obj, nil
}
