package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judy4534/studentSystem/internal/models"
	"github.com/judy4534/studentSystem/internal/service"
	appErrors "github.com/judy4534/studentSystem/pkg/errors"
	"github.com/judy4534/studentSystem/pkg/response"
)

// RecordsHandler exposes the academic-records views: course standings,
// transcripts and the grade-submission board.
type RecordsHandler struct {
	records *service.RecordsService
}

// NewRecordsHandler constructs RecordsHandler.
func NewRecordsHandler(records *service.RecordsService) *RecordsHandler {
	return &RecordsHandler{records: records}
}

// Students may only read their own records; staff can read anyone's.
func (h *RecordsHandler) resolveStudentID(c *gin.Context) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	studentID := c.Param("id")
	if studentID == "" {
		studentID = claims.UserID
	}
	if claims.Role == models.RoleStudent && studentID != claims.UserID {
		return "", appErrors.Clone(appErrors.ErrForbidden, "records belong to another student")
	}
	return studentID, nil
}

// Standing godoc
// @Summary Course standing for a student
// @Description Resolve a student's standing toward a single course
// @Tags Records
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/students/{id}/courses/{courseId} [get]
func (h *RecordsHandler) Standing(c *gin.Context) {
	studentID, err := h.resolveStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	standing, err := h.records.CourseStanding(c.Request.Context(), studentID, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standing, nil)
}

// CatalogStandings godoc
// @Summary Catalog standings for a student
// @Description Resolve standings across the course catalog
// @Tags Records
// @Produce json
// @Param id path string true "Student ID"
// @Param department_id query string false "Department filter"
// @Param search query string false "Search by code or name"
// @Success 200 {object} response.Envelope
// @Router /records/students/{id}/standings [get]
func (h *RecordsHandler) CatalogStandings(c *gin.Context) {
	studentID, err := h.resolveStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := courseFilterFromQuery(c)
	standings, err := h.records.CatalogStandings(c.Request.Context(), studentID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standings, nil)
}

// Transcript godoc
// @Summary Student transcript
// @Description Full academic record grouped by semester with cumulative GPA
// @Tags Records
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/students/{id}/transcript [get]
func (h *RecordsHandler) Transcript(c *gin.Context) {
	studentID, err := h.resolveStudentID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	transcript, err := h.records.Transcript(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// SubmissionBoard godoc
// @Summary Grade submission board
// @Description Per-course submission status for a semester
// @Tags Records
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /records/semesters/{id}/submissions [get]
func (h *RecordsHandler) SubmissionBoard(c *gin.Context) {
	board, err := h.records.SubmissionBoard(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil)
}
