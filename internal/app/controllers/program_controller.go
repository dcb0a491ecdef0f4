package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssis-app/ssis/internal/app/models/dto"
	"github.com/ssis-app/ssis/internal/app/services"
	"github.com/ssis-app/ssis/internal/middleware"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// ProgramController handles program-related operations
type ProgramController struct {
	programService services.ProgramService
}

// NewProgramController creates a new ProgramController
func NewProgramController(programService services.ProgramService) *ProgramController {
	return &ProgramController{
		programService: programService,
	}
}

// ListPrograms returns one page of programs
// @Summary List programs
// @Tags programs
// @Produce json
// @Success 200 {object} map[string]interface{} "{ programs, total, pages, current_page }"
// @Router /programs [get]
func (c *ProgramController) ListPrograms(ctx *gin.Context) {
	page, err := c.programService.ListPrograms(ctx, query.ParseValues(ctx.Request.URL.Query()))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

// GetDropdown returns every program, unpaginated
// @Summary Program picker options
// @Tags programs
// @Produce json
// @Success 200 {object} map[string]interface{} "{ programs }"
// @Router /programs/dropdown [get]
func (c *ProgramController) GetDropdown(ctx *gin.Context) {
	programs, err := c.programService.GetDropdown(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{query.Programs.Name: programs})
}

// GetTotal returns the number of programs
// @Router /programs/total [get]
func (c *ProgramController) GetTotal(ctx *gin.Context) {
	total, err := c.programService.CountPrograms(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.TotalResponse{Total: total})
}

// GetProgram retrieves a program by code
// @Summary Get a program
// @Tags programs
// @Produce json
// @Param id path string true "Program code"
// @Success 200 {object} models.Program
// @Failure 404 {object} dto.ErrorResponse "Program not found"
// @Router /programs/{id} [get]
func (c *ProgramController) GetProgram(ctx *gin.Context) {
	program, err := c.programService.GetProgram(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, program)
}

// CreateProgram handles program creation
// @Summary Create a program
// @Tags programs
// @Accept json
// @Produce json
// @Param request body dto.ProgramRequest true "Program information"
// @Success 201 {object} map[string]interface{} "{ program, message }"
// @Failure 400 {object} dto.ErrorResponse "Missing required fields or unknown college"
// @Failure 409 {object} dto.ErrorResponse "Program code already exists"
// @Router /programs/create [post]
func (c *ProgramController) CreateProgram(ctx *gin.Context) {
	var req dto.ProgramRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	program, err := c.programService.CreateProgram(ctx, req.Model())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.EntityResponse(query.Programs.Singular, program, "Program created successfully"))
}

// UpdateProgram replaces the program stored under the path code
// @Summary Update a program
// @Tags programs
// @Accept json
// @Produce json
// @Param id path string true "Current program code"
// @Param request body dto.ProgramRequest true "Program information"
// @Success 200 {object} map[string]interface{} "{ program, message }"
// @Router /programs/{id} [put]
func (c *ProgramController) UpdateProgram(ctx *gin.Context) {
	var req dto.ProgramRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	program, err := c.programService.UpdateProgram(ctx, ctx.Param("id"), req.Model())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.EntityResponse(query.Programs.Singular, program, "Program updated successfully"))
}

// DeleteProgram deletes a program
// @Summary Delete a program
// @Tags programs
// @Param id path string true "Program code"
// @Success 200 {object} dto.SuccessResponse
// @Router /programs/{id} [delete]
func (c *ProgramController) DeleteProgram(ctx *gin.Context) {
	if err := c.programService.DeleteProgram(ctx, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "Program deleted successfully"})
}
