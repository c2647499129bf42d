package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/models"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
)

var ErrUnsupportedFormat = errors.New("unsupported export format")

// Exporter writes survey responses to CSV or XLSX files in the background.
// Job state lives in the export_jobs table.
type Exporter struct {
	db      *gorm.DB
	schemas *SchemaLoader
	dir     string
	log     logrus.FieldLogger
	wg      sync.WaitGroup
}

func NewExporter(db *gorm.DB, schemas *SchemaLoader, dir string, log logrus.FieldLogger) *Exporter {
	if dir == "" {
		dir = "./exports"
	}
	return &Exporter{db: db, schemas: schemas, dir: dir, log: log}
}

// Enqueue records a queued job and starts it in a goroutine.
func (e *Exporter) Enqueue(ctx context.Context, surveyID uint, format string, from, to *time.Time) (*models.ExportJob, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportCSV
	}
	if format != ExportCSV && format != ExportXLSX {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	job := models.ExportJob{
		JobID:     uuid.NewString(),
		SurveyID:  surveyID,
		Format:    format,
		RangeFrom: from,
		RangeTo:   to,
		Status:    models.ExportStatusQueued,
	}
	if err := e.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.Run(context.Background(), job.JobID)
	}()
	return &job, nil
}

// Wait blocks until every started job has finished.
func (e *Exporter) Wait() { e.wg.Wait() }

// Run processes one job and records done or failed on it.
func (e *Exporter) Run(ctx context.Context, jobID string) {
	log := e.log.WithField("job_id", jobID)

	var job models.ExportJob
	if err := e.db.WithContext(ctx).First(&job, "job_id = ?", jobID).Error; err != nil {
		log.WithError(err).Error("export job not found")
		return
	}
	if err := e.setStatus(ctx, &job, map[string]interface{}{"status": models.ExportStatusProcessing}); err != nil {
		log.WithError(err).WithField("status", models.ExportStatusProcessing).Error("export job status update failed")
		return
	}

	path, err := e.write(ctx, &job)
	if err != nil {
		msg := err.Error()
		log.WithError(err).Error("export failed")
		if err := e.setStatus(ctx, &job, map[string]interface{}{"status": models.ExportStatusFailed, "error_msg": msg}); err != nil {
			log.WithError(err).WithField("status", models.ExportStatusFailed).Error("export job status update failed")
		}
		return
	}
	if err := e.setStatus(ctx, &job, map[string]interface{}{"status": models.ExportStatusDone, "file_path": path}); err != nil {
		log.WithError(err).WithField("status", models.ExportStatusDone).Error("export job status update failed")
		return
	}
	log.WithField("file", path).Info("export done")
}

func (e *Exporter) setStatus(ctx context.Context, job *models.ExportJob, fields map[string]interface{}) error {
	return e.db.WithContext(ctx).Model(job).Updates(fields).Error
}

func (e *Exporter) write(ctx context.Context, job *models.ExportJob) (string, error) {
	questions, err := e.schemas.Load(ctx, job.SurveyID)
	if err != nil {
		return "", err
	}

	q := e.db.WithContext(ctx).
		Preload("Answers").
		Where("survey_id = ?", job.SurveyID)
	if job.RangeFrom != nil {
		q = q.Where("started_at >= ?", *job.RangeFrom)
	}
	if job.RangeTo != nil {
		q = q.Where("started_at <= ?", *job.RangeTo)
	}
	var responses []models.SurveyResponse
	if err := q.Order("id ASC").Find(&responses).Error; err != nil {
		return "", err
	}

	table := buildExportTable(questions, responses)

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, fmt.Sprintf("export_%s.%s", job.JobID, job.Format))
	switch job.Format {
	case ExportXLSX:
		return path, writeXLSX(path, table)
	default:
		return path, writeCSV(path, table)
	}
}

func buildExportTable(questions []QuestionSchema, responses []models.SurveyResponse) [][]string {
	header := []string{"response_id", "email", "started_at", "completed_at", "is_complete"}
	for _, q := range questions {
		header = append(header, q.Title)
	}
	table := [][]string{header}

	for _, r := range responses {
		values := make(map[uint]string, len(r.Answers))
		for _, a := range r.Answers {
			values[a.QuestionID] = ExportCell(a.Value)
		}
		row := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			derefString(r.Email),
			r.StartedAt.Format(time.RFC3339),
			formatTimePtr(r.CompletedAt),
			strconv.FormatBool(r.IsComplete),
		}
		for _, q := range questions {
			row = append(row, values[q.ID])
		}
		table = append(table, row)
	}
	return table
}

// ExportCell renders a stored answer value as a single spreadsheet cell.
func ExportCell(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return formatNumber(x)
	case bool:
		return strconv.FormatBool(x)
	case []interface{}:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			b, _ := json.Marshal(item)
			parts = append(parts, ExportCell(b))
		}
		return strings.Join(parts, "; ")
	case map[string]interface{}:
		if url, ok := x["fileUrl"].(string); ok && url != "" {
			return url
		}
	}
	return string(raw)
}

func writeCSV(path string, table [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(table); err != nil {
		return err
	}
	return f.Sync()
}

func writeXLSX(path string, table [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Respuestas"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, row := range table {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
