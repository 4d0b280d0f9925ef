package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/judy4534/studentSystem/internal/models"
	"github.com/judy4534/studentSystem/internal/service"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
	"github.com/judy4534/studentSystem/pkg/response"
)

// ReportHandler exposes downloadable exports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func reportFormat(c *gin.Context) (service.ReportFormat, error) {
	format := service.ReportFormat(strings.ToLower(c.DefaultQuery("format", "csv")))
	switch format {
	case service.ReportFormatCSV, service.ReportFormatPDF:
		return format, nil
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func streamReport(c *gin.Context, report *service.Report) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", report.FileName))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, report.ContentType, report.Content)
}

// Transcript godoc
// @Summary Export student transcript
// @Description Render the transcript as a CSV or PDF download
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{id}/transcript [get]
func (h *ReportHandler) Transcript(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	studentID := c.Param("id")
	if claims.Role == models.RoleStudent && studentID != claims.UserID {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "records belong to another student"))
		return
	}

	format, err := reportFormat(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.reports.Transcript(c.Request.Context(), studentID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	streamReport(c, report)
}

// CourseRoster godoc
// @Summary Export course roster
// @Description Render the graded roster for a course offering
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Course ID"
// @Param semester_id query string true "Semester ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Router /reports/courses/{id}/roster [get]
func (h *ReportHandler) CourseRoster(c *gin.Context) {
	semesterID := c.Query("semester_id")
	if semesterID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "semester_id required"))
		return
	}

	format, err := reportFormat(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.reports.CourseRoster(c.Request.Context(), c.Param("id"), semesterID, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	streamReport(c, report)
}
