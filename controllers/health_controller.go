package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// HealthCheck pings the database, and redis when one is configured.
func HealthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		response := gin.H{
			"status":  "ok",
			"message": "Service is healthy",
			"db":      "ok",
		}
		status := http.StatusOK

		sqlDB, err := db.DB()
		if err != nil {
			response["db"] = "error: cannot get DB instance"
			status = http.StatusInternalServerError
		} else if err := sqlDB.PingContext(ctx); err != nil {
			response["db"] = "error: cannot connect to DB"
			status = http.StatusInternalServerError
		}

		if rdb != nil {
			response["redis"] = "ok"
			if err := rdb.Ping(ctx).Err(); err != nil {
				// the schema cache degrades to the database
				response["redis"] = "error: " + err.Error()
			}
		}

		if status != http.StatusOK {
			response["status"] = "error"
		}
		c.JSON(status, response)
	}
}
