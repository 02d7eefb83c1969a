package serving

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imishinist/mlops-pipeline/internal/logger"
	"github.com/imishinist/mlops-pipeline/internal/metrics"
	"github.com/imishinist/mlops-pipeline/internal/models"
)

type HTTPError struct {
	Message string `json:"message"`
}

type Handlers struct {
	predictor Predictor
}

func NewHandlers(predictor Predictor) *Handlers {
	return &Handlers{predictor: predictor}
}

// Predict returns the predicted duration of the ride in the request body.
func (h *Handlers) Predict(ctx *gin.Context) {
	start := time.Now()
	defer func() {
		metrics.PredictDuration.Observe(time.Since(start).Seconds())
	}()

	var ride models.Ride
	if err := ctx.ShouldBindJSON(&ride); err != nil {
		metrics.PredictCount.WithLabelValues(metrics.ResultFailure).Inc()
		ctx.JSON(http.StatusBadRequest, HTTPError{Message: err.Error()})
		return
	}

	duration, err := h.predictor.Predict(ride)
	if err != nil {
		logger.GinLogger.Errorf("prediction failed for %+v: %v", ride, err)
		metrics.PredictCount.WithLabelValues(metrics.ResultFailure).Inc()
		ctx.JSON(http.StatusInternalServerError, HTTPError{Message: err.Error()})
		return
	}

	metrics.PredictCount.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.PredictedDuration.Observe(duration)
	ctx.JSON(http.StatusOK, models.Prediction{
		Duration:     duration,
		ModelVersion: h.predictor.Version(),
	})
}

func (h *Handlers) GetHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, "OK")
}
