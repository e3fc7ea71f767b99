package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/hairsim-backend/internal/http/handlers"
	httpMW "github.com/yungbote/hairsim-backend/internal/http/middleware"
	"github.com/yungbote/hairsim-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	SimulationHandler *httpH.SimulationHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	if cfg.SimulationHandler != nil {
		r.GET("/run-stablehair/:user_id/:request_id", cfg.SimulationHandler.RunSimulationByPath)
		r.POST("/run-stablehair", cfg.SimulationHandler.RunSimulation)
		r.GET("/runs/:user_id/:request_id", cfg.SimulationHandler.GetLatestRun)
	}

	return r
}
