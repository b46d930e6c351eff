package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/smartagricare-api/internal/application"
	"github.com/oksasatya/smartagricare-api/internal/interface/middleware"
	"github.com/oksasatya/smartagricare-api/internal/observability/metrics"
	"github.com/oksasatya/smartagricare-api/pkg/response"
)

type ReportHandler struct {
	Svc    *application.ReportService
	Logger *logrus.Logger
}

func NewReportHandler(svc *application.ReportService, logger *logrus.Logger) *ReportHandler {
	return &ReportHandler{Svc: svc, Logger: logger}
}

// Save POST /api/disease/report. The owner is always the token subject.
func (h *ReportHandler) Save(c *gin.Context) {
	var req application.ReportInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	id, err := h.Svc.Save(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	metrics.IncReportsSaved()
	response.Success(c, http.StatusCreated, gin.H{"id": id}, "report saved", nil)
}

// List GET /api/disease/reports
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.Svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reports": reports}, "reports", map[string]any{"count": len(reports)})
}
