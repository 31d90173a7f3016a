package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/rosterhub/internal/app/models/dto"
	"github.com/yigit/rosterhub/internal/app/services"
	"github.com/yigit/rosterhub/internal/middleware"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/export"
	"github.com/yigit/rosterhub/internal/pkg/helpers"
)

// ExportFilename is the attachment name of the roster export.
const ExportFilename = "roster.xlsx"

// RosterController serves the joined roster views and the export
type RosterController struct {
	rosterService services.RosterService
	exportService services.ExportService
}

// NewRosterController creates a new RosterController
func NewRosterController(rosterService services.RosterService, exportService services.ExportService) *RosterController {
	return &RosterController{
		rosterService: rosterService,
		exportService: exportService,
	}
}

// ListStudents returns one page of the roster
// @Summary List students
// @Description Returns one page of students in roll number order, each with the overall average or "N/A"
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (1-based)" default(1)
// @Param limit query int false "Page size (alias: pageSize)" default(10) minimum(1) maximum(100)
// @Success 200 {object} dto.APIResponse{data=dto.RosterPageResponse} "Page retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid pagination parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "No data (severity INFO)"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Failure 504 {object} dto.ErrorResponse "Storage timeout"
// @Router /students [get]
func (c *RosterController) ListStudents(ctx *gin.Context) {
	page, size, err := helpers.ParsePaginationParams(ctx, c.rosterService.Options().DefaultPageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	view, err := c.rosterService.PaginatedView(ctx.Request.Context(), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if view.NoData() {
		middleware.HandleAPIError(ctx, apperrors.ErrNoData)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.RosterPageResponse{
		Items:      dto.NewRosterRows(view.Rows),
		Pagination: helpers.NewPaginationInfo(view.TotalItems, view.Page, view.PageSize),
	}, ""))
}

// SearchStudents searches the roster by name
// @Summary Search students
// @Description Case-insensitive literal substring search on name, optionally sorted by one profile field. Results are capped; truncated is set when more matched.
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param name query string false "Name substring"
// @Param sort query string false "Sort field" Enums(rollNumber, name, phone, email, dob, fathersName, mothersName, parentsPhone, gender, course, branch, section, year, residenceStatus, createdAt)
// @Success 200 {object} dto.APIResponse{data=dto.SearchResponse} "Matches"
// @Failure 400 {object} dto.ErrorResponse "Invalid sort field"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "No data (severity INFO)"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/search [get]
func (c *RosterController) SearchStudents(ctx *gin.Context) {
	result, err := c.rosterService.SearchView(ctx.Request.Context(), ctx.Query("name"), ctx.Query("sort"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if result.NoData() {
		middleware.HandleAPIError(ctx, apperrors.ErrNoData)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SearchResponse{
		Items:     dto.NewRosterRows(result.Rows),
		Count:     len(result.Rows),
		Truncated: result.Truncated,
		Limit:     result.Limit,
	}, ""))
}

// ExportRoster downloads the roster as a spreadsheet
// @Summary Export the roster
// @Description Streams every student with the overall average as an xlsx file
// @Tags students
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "roster.xlsx"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /students/export [get]
func (c *RosterController) ExportRoster(ctx *gin.Context) {
	out := &attachmentWriter{ctx: ctx, filename: ExportFilename, contentType: export.XLSXContentType}
	sink, err := export.NewXLSXSink(out, "Roster")
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	if _, err := c.exportService.ExportRoster(ctx.Request.Context(), sink); err != nil {
		if out.started {
			// Headers are gone; all that is left is to cut the download short.
			_ = ctx.Error(err)
			ctx.Abort()
			return
		}
		middleware.HandleAPIError(ctx, err)
	}
}

// attachmentWriter sends the download headers on the first write, so an
// export that fails before producing output can still answer with JSON.
type attachmentWriter struct {
	ctx         *gin.Context
	filename    string
	contentType string
	started     bool
}

func (w *attachmentWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.started = true
		w.ctx.Header("Content-Type", w.contentType)
		w.ctx.Header("Content-Disposition", "attachment; filename="+w.filename)
		w.ctx.Status(http.StatusOK)
	}
	return w.ctx.Writer.Write(p)
}
