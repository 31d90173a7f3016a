package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rosterhub/internal/app/models/dto"
	"github.com/yigit/rosterhub/internal/app/services"
	"github.com/yigit/rosterhub/internal/middleware"
)

// AcademicHistoryController handles grade history operations
type AcademicHistoryController struct {
	historyService services.AcademicHistoryService
}

// NewAcademicHistoryController creates a new AcademicHistoryController
func NewAcademicHistoryController(historyService services.AcademicHistoryService) *AcademicHistoryController {
	return &AcademicHistoryController{
		historyService: historyService,
	}
}

// SubmitAcademicHistory stores the grade history of a student
// @Summary Submit academic history
// @Description Creates or replaces the semester grade history of a student. The overall average is computed by the server; a supplied average must match it within the configured tolerance.
// @Tags academic-history
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param rollNumber path string true "Roll number"
// @Param request body dto.SubmitAcademicHistoryRequest true "Semester grades"
// @Success 201 {object} dto.APIResponse{data=dto.SubmitAcademicHistoryResponse} "History created"
// @Success 200 {object} dto.APIResponse{data=dto.SubmitAcademicHistoryResponse} "History replaced"
// @Failure 400 {object} dto.ErrorResponse "Invalid grades or average"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Student not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /academic-history/{rollNumber} [put]
func (c *AcademicHistoryController) SubmitAcademicHistory(ctx *gin.Context) {
	var req dto.SubmitAcademicHistoryRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	result, err := c.historyService.Submit(ctx.Request.Context(), ctx.Param("rollNumber"), req.Grades(), req.OverallAverage)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	status, message := http.StatusOK, "Academic history updated"
	if result.Created {
		status, message = http.StatusCreated, "Academic history created"
	}
	ctx.JSON(status, dto.NewSuccessResponse(dto.SubmitAcademicHistoryResponse{
		ID:             result.ID,
		RollNumber:     result.RollNumber,
		OverallAverage: result.OverallAverage,
		Created:        result.Created,
	}, message))
}

// GetAcademicHistory retrieves the grade history of a student
// @Summary Get academic history
// @Description Retrieves the semester grades and overall average of a student by roll number
// @Tags academic-history
// @Produce json
// @Security BearerAuth
// @Param rollNumber path string true "Roll number"
// @Success 200 {object} dto.APIResponse{data=dto.AcademicHistoryResponse} "History retrieved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Academic history not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /academic-history/{rollNumber} [get]
func (c *AcademicHistoryController) GetAcademicHistory(ctx *gin.Context) {
	history, err := c.historyService.GetByRollNumber(ctx.Request.Context(), ctx.Param("rollNumber"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewAcademicHistoryResponse(history), ""))
}
