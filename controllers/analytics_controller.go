package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/survey-collector/middleware"
	"github.com/vnkhanh/survey-collector/models"
	"github.com/vnkhanh/survey-collector/services"
)

// GET /api/forms/:id/analytics?from=YYYY-MM-DD&to=YYYY-MM-DD
func GetDailyAnalytics(agg *services.AnalyticsAggregator) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := c.MustGet(middleware.CtxSurvey).(models.Survey)

		from, to := c.Query("from"), c.Query("to")
		for _, d := range []string{from, to} {
			if d == "" {
				continue
			}
			if _, err := time.Parse("2006-01-02", d); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"message": "Las fechas deben tener el formato YYYY-MM-DD"})
				return
			}
		}

		rows, err := agg.Daily(c.Request.Context(), form.ID, from, to)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo leer las estadísticas"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"survey_id": form.ID,
			"days":      rows,
			"totals":    agg.Totals(rows),
		})
	}
}

// GET /api/forms/:id/summary
func GetQuestionSummary(reporter *services.Reporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := c.MustGet(middleware.CtxSurvey).(models.Survey)

		summary, err := reporter.Summary(c.Request.Context(), form.ID)
		if err != nil {
			var se *services.SubmissionError
			if errors.As(err, &se) {
				writeSubmissionError(c, err)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo generar el resumen"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"survey_id":      form.ID,
			"response_count": form.ResponseCount,
			"questions":      summary,
		})
	}
}
