package controllers

import (
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/survey-collector/middleware"
	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/services"
)

type ExportRequest struct {
	Format    string  `json:"format"`
	RangeFrom *string `json:"range_from,omitempty"`
	RangeTo   *string `json:"range_to,omitempty"`
}

func parseRangeBound(v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// POST /api/forms/:id/export
func CreateExport(exporter *services.Exporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := c.MustGet(middleware.CtxSurvey).(models.Survey)

		var req ExportRequest
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Datos no válidos"})
				return
			}
		}
		from, err := parseRangeBound(req.RangeFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "range_from debe ser RFC3339"})
			return
		}
		to, err := parseRangeBound(req.RangeTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "range_to debe ser RFC3339"})
			return
		}

		job, err := exporter.Enqueue(c.Request.Context(), form.ID, req.Format, from, to)
		if errors.Is(err, services.ErrUnsupportedFormat) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Formato no soportado (csv, xlsx)"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo crear la exportación"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"job_id": job.JobID,
			"status": job.Status,
			"format": job.Format,
		})
	}
}

// GET /api/exports/:job_id
// Only the survey owner (or an admin) can read a job. A finished job is
// served as a file download.
func GetExport(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, _ := middleware.CurrentUser(c)

		var job models.ExportJob
		if err := db.First(&job, "job_id = ?", c.Param("job_id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"message": "Exportación no encontrada"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo leer la exportación"})
			return
		}

		var form models.Survey
		if err := db.First(&form, job.SurveyID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Exportación no encontrada"})
			return
		}
		if !u.IsAdmin && (form.OwnerID == nil || *form.OwnerID != u.ID) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Acceso denegado"})
			return
		}

		if job.Status == models.ExportStatusDone && job.FilePath != nil {
			c.FileAttachment(*job.FilePath, filepath.Base(*job.FilePath))
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"job_id": job.JobID,
			"status": job.Status,
			"error":  job.ErrorMsg,
		})
	}
}
