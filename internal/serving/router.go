package serving

import (
	"time"

	"github.com/gin-gonic/gin"
	ginprometheus "github.com/mcuadros/go-gin-prometheus"

	"github.com/imishinist/mlops-pipeline/internal/logger"
)

const PrometheusSubsystemName = "mlops_serving_http"

// NewRouter registers the prediction, health and metrics routes.
func NewRouter(predictor Predictor, verbose bool) *gin.Engine {
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	h := NewHandlers(predictor)

	// Request metrics, labeled by path without query string. Also serves /metrics.
	p := ginprometheus.NewPrometheus(PrometheusSubsystemName)
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		return c.Request.URL.Path
	}
	p.Use(r)

	r.Use(gin.Recovery())
	r.Use(requestLogger())

	r.GET("/healthy", h.GetHealth)
	r.POST("/predict", h.Predict)
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.GinLogger.Infow("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
