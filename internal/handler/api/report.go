package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"TradePulse/internal/services/regime"
	"TradePulse/internal/services/risk"
	applogger "TradePulse/pkg/logger"
)

// ReportHandler serves the read-only risk and regime snapshots.
type ReportHandler struct {
	log         *applogger.Logger
	validator   *risk.Validator
	classifiers []*regime.Classifier
}

func NewReportHandler(log *applogger.Logger, validator *risk.Validator, classifiers []*regime.Classifier) *ReportHandler {
	return &ReportHandler{log: log, validator: validator, classifiers: classifiers}
}

// RegisterRoutes registers the report endpoints.
func (h *ReportHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/risk/report", h.riskReport)
	e.GET("/regimes", h.regimes)
}

func (h *ReportHandler) riskReport(c echo.Context) error {
	return c.JSON(http.StatusOK, h.validator.Report())
}

func (h *ReportHandler) regimes(c echo.Context) error {
	out := make([]regime.Snapshot, 0, len(h.classifiers))
	for _, cl := range h.classifiers {
		out = append(out, cl.Current())
	}
	return c.JSON(http.StatusOK, out)
}
