package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vkarpenko/placesync/internal/metrics"
)

// MetricsController exposes sync outcome summaries.
type MetricsController struct {
	collector *metrics.Collector
}

func NewMetricsController(collector *metrics.Collector) *MetricsController {
	return &MetricsController{collector: collector}
}

// GetSummary handles GET /api/metrics/sync
// Aggregates sync outcomes for the user, optionally scoped to one account
// via ?account_id= and a window via ?days= (default 30).
func (mc *MetricsController) GetSummary(c *gin.Context) {
	userID := GetUserID(c)
	accountID := c.Query("account_id")

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	summary, err := mc.collector.GetSummary(userID, accountID, since)
	if err != nil {
		respondInternalError(c, err, "metrics summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"since":   since.Format(time.RFC3339),
		"summary": summary,
	})
}
