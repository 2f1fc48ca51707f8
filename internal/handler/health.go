package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/infra"
	"github.com/darielruizg/Puntodeventa/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// dlqRecientes is how many dead-lettered email jobs /health lists.
const dlqRecientes = 5

type fallaEmail struct {
	Reason   string `json:"reason"`
	FailedAt string `json:"failed_at"`
	Attempts int    `json:"attempts"`
}

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// Redis is optional: without it the check reports "disabled" and stays green.
// The newest dead-lettered email jobs are listed without their payload.
func Health(db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		var dlq int64
		fallas := []fallaEmail{}
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else {
				dlq, _ = worker.DLQLength(ctx, rdb, worker.QueueEmail)
				entries, _ := worker.DLQEntries(ctx, rdb, worker.QueueEmail, dlqRecientes)
				for _, e := range entries {
					fallas = append(fallas, fallaEmail{Reason: e.Reason, FailedAt: e.FailedAt, Attempts: e.Attempts})
				}
			}
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":                  status == http.StatusOK,
			"db":                  dbStatus,
			"redis":               redisStatus,
			"smtp":                mailer.Estado(),
			"email_dlq":           dlq,
			"email_dlq_recientes": fallas,
		})
	}
}
