package services

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"

	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/models"
)

const maxTextValues = 20

type ValueCount struct {
	Value   string  `json:"value"`
	Label   string  `json:"label,omitempty"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type NumericStats struct {
	Count     int          `json:"count"`
	Avg       float64      `json:"avg"`
	Min       float64      `json:"min"`
	Max       float64      `json:"max"`
	Histogram []ValueCount `json:"histogram"`
}

type FileRef struct {
	ResponseID uint   `json:"response_id"`
	FileName   string `json:"fileName"`
	FileURL    string `json:"fileUrl"`
}

// QuestionSummary aggregates the stored answers of one question. Which of
// Options, Numeric, Values and Files is filled depends on the type.
type QuestionSummary struct {
	QuestionID uint          `json:"question_id"`
	Title      string        `json:"title"`
	Type       QuestionType  `json:"type"`
	Answered   int           `json:"answered"`
	Options    []ValueCount  `json:"options,omitempty"`
	Numeric    *NumericStats `json:"numeric,omitempty"`
	Values     []ValueCount  `json:"values,omitempty"`
	Files      []FileRef     `json:"files,omitempty"`
}

type Reporter struct {
	db      *gorm.DB
	schemas *SchemaLoader
}

func NewReporter(db *gorm.DB, schemas *SchemaLoader) *Reporter {
	return &Reporter{db: db, schemas: schemas}
}

type storedAnswer struct {
	ResponseID uint
	QuestionID uint
	Value      models.AnswerValue
}

// Summary returns one entry per question, in display order. Null answers
// are not counted as answered.
func (r *Reporter) Summary(ctx context.Context, surveyID uint) ([]QuestionSummary, error) {
	questions, err := r.schemas.Load(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	var rows []storedAnswer
	err = r.db.WithContext(ctx).
		Table("answers").
		Select("answers.response_id, answers.question_id, answers.value").
		Joins("JOIN survey_responses ON survey_responses.id = answers.response_id").
		Where("survey_responses.survey_id = ? AND answers.value IS NOT NULL", surveyID).
		Order("answers.response_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[uint][]storedAnswer)
	for _, row := range rows {
		byQuestion[row.QuestionID] = append(byQuestion[row.QuestionID], row)
	}

	out := make([]QuestionSummary, 0, len(questions))
	for i := range questions {
		out = append(out, summarize(&questions[i], byQuestion[questions[i].ID]))
	}
	return out, nil
}

func summarize(q *QuestionSchema, answers []storedAnswer) QuestionSummary {
	s := QuestionSummary{QuestionID: q.ID, Title: q.Title, Type: q.Type}
	counts := map[string]int{}
	var numbers []float64

	for _, a := range answers {
		var v interface{}
		if err := json.Unmarshal(a.Value, &v); err != nil || v == nil {
			continue
		}
		s.Answered++

		switch q.Type {
		case TypeDropdown, TypeMultipleChoice:
			if str, ok := v.(string); ok {
				counts[str]++
			}
		case TypeCheckboxes:
			if items, ok := v.([]interface{}); ok {
				for _, item := range items {
					if str, ok := item.(string); ok {
						counts[str]++
					}
				}
			}
		case TypeNumber, TypeScale, TypeRating:
			if n, ok := toNumber(v); ok {
				numbers = append(numbers, n)
			}
		case TypeFileUpload:
			if obj, ok := v.(map[string]interface{}); ok {
				s.Files = append(s.Files, FileRef{
					ResponseID: a.ResponseID,
					FileName:   nonEmptyString(obj["fileName"]),
					FileURL:    nonEmptyString(obj["fileUrl"]),
				})
			}
		case TypeSignature, TypeMatrix:
		default:
			if str, ok := scalarText(v); ok {
				counts[str]++
			}
		}
	}

	switch {
	case q.Type.HasOptions():
		s.Options = optionCounts(q, counts, s.Answered)
	case len(numbers) > 0:
		s.Numeric = numericStats(numbers)
	case len(counts) > 0:
		s.Values = topValues(counts, s.Answered, maxTextValues)
	}
	return s
}

// optionCounts lists every option, including those nobody picked, plus any
// stored value no longer in the option set.
func optionCounts(q *QuestionSchema, counts map[string]int, answered int) []ValueCount {
	out := make([]ValueCount, 0, len(q.Options))
	seen := map[string]bool{}
	for _, o := range q.Options {
		if seen[o.Value] {
			continue
		}
		seen[o.Value] = true
		out = append(out, ValueCount{Value: o.Value, Label: o.Label, Count: counts[o.Value], Percent: percent(counts[o.Value], answered)})
	}
	var stale []string
	for v := range counts {
		if !seen[v] {
			stale = append(stale, v)
		}
	}
	sort.Strings(stale)
	for _, v := range stale {
		out = append(out, ValueCount{Value: v, Count: counts[v], Percent: percent(counts[v], answered)})
	}
	return out
}

func numericStats(numbers []float64) *NumericStats {
	st := &NumericStats{Count: len(numbers), Min: numbers[0], Max: numbers[0]}
	hist := map[float64]int{}
	var sum float64
	for _, n := range numbers {
		sum += n
		if n < st.Min {
			st.Min = n
		}
		if n > st.Max {
			st.Max = n
		}
		hist[n]++
	}
	st.Avg = sum / float64(len(numbers))

	keys := make([]float64, 0, len(hist))
	for k := range hist {
		keys = append(keys, k)
	}
	sort.Float64s(keys)
	for _, k := range keys {
		st.Histogram = append(st.Histogram, ValueCount{Value: formatNumber(k), Count: hist[k], Percent: percent(hist[k], len(numbers))})
	}
	return st
}

func topValues(counts map[string]int, answered, limit int) []ValueCount {
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n, Percent: percent(n, answered)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	p, _ := strconv.ParseFloat(strconv.FormatFloat(float64(n)*100/float64(total), 'f', 2, 64), 64)
	return p
}
