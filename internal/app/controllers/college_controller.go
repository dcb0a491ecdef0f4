package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ssis-app/ssis/internal/app/models/dto"
	"github.com/ssis-app/ssis/internal/app/services"
	"github.com/ssis-app/ssis/internal/middleware"
	"github.com/ssis-app/ssis/internal/pkg/query"
)

// CollegeController handles college-related operations
type CollegeController struct {
	collegeService services.CollegeService
}

// NewCollegeController creates a new CollegeController
func NewCollegeController(collegeService services.CollegeService) *CollegeController {
	return &CollegeController{
		collegeService: collegeService,
	}
}

// ListColleges returns one page of colleges
// @Summary List colleges
// @Tags colleges
// @Produce json
// @Param page query int false "Page number (1-based)"
// @Param per_page query int false "Page size"
// @Param search query string false "Search text"
// @Param searchBy query string false "Field to search, or all"
// @Param sortBy query string false "Sort field"
// @Param order query string false "asc or desc"
// @Success 200 {object} map[string]interface{} "{ colleges, total, pages, current_page }"
// @Router /colleges [get]
func (c *CollegeController) ListColleges(ctx *gin.Context) {
	page, err := c.collegeService.ListColleges(ctx, query.ParseValues(ctx.Request.URL.Query()))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, page)
}

// GetDropdown returns every college, unpaginated
// @Summary College picker options
// @Tags colleges
// @Produce json
// @Success 200 {object} map[string]interface{} "{ colleges }"
// @Router /colleges/dropdown [get]
func (c *CollegeController) GetDropdown(ctx *gin.Context) {
	colleges, err := c.collegeService.GetDropdown(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{query.Colleges.Name: colleges})
}

// GetTotal returns the number of colleges
// @Summary Count colleges
// @Tags colleges
// @Produce json
// @Success 200 {object} dto.TotalResponse
// @Router /colleges/total [get]
func (c *CollegeController) GetTotal(ctx *gin.Context) {
	total, err := c.collegeService.CountColleges(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.TotalResponse{Total: total})
}

// GetCollege retrieves a college by code
// @Summary Get a college
// @Tags colleges
// @Produce json
// @Param id path string true "College code"
// @Success 200 {object} models.College
// @Failure 404 {object} dto.ErrorResponse "College not found"
// @Router /colleges/{id} [get]
func (c *CollegeController) GetCollege(ctx *gin.Context) {
	college, err := c.collegeService.GetCollege(ctx, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, college)
}

// CreateCollege handles college creation
// @Summary Create a college
// @Tags colleges
// @Accept json
// @Produce json
// @Param request body dto.CollegeRequest true "College information"
// @Success 201 {object} map[string]interface{} "{ college, message }"
// @Failure 400 {object} dto.ErrorResponse "Missing required fields"
// @Failure 409 {object} dto.ErrorResponse "College code already exists"
// @Router /colleges/create [post]
func (c *CollegeController) CreateCollege(ctx *gin.Context) {
	var req dto.CollegeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	college, err := c.collegeService.CreateCollege(ctx, req.Model())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.EntityResponse(query.Colleges.Singular, college, "College created successfully"))
}

// UpdateCollege replaces the college stored under the path code
// @Summary Update a college
// @Tags colleges
// @Accept json
// @Produce json
// @Param id path string true "Current college code"
// @Param request body dto.CollegeRequest true "College information"
// @Success 200 {object} map[string]interface{} "{ college, message }"
// @Failure 404 {object} dto.ErrorResponse "College not found"
// @Failure 409 {object} dto.ErrorResponse "College code already exists"
// @Router /colleges/{id} [put]
func (c *CollegeController) UpdateCollege(ctx *gin.Context) {
	var req dto.CollegeRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	college, err := c.collegeService.UpdateCollege(ctx, ctx.Param("id"), req.Model())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.EntityResponse(query.Colleges.Singular, college, "College updated successfully"))
}

// DeleteCollege deletes a college without programs
// @Summary Delete a college
// @Tags colleges
// @Produce json
// @Param id path string true "College code"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse "College not found"
// @Failure 409 {object} dto.ErrorResponse "College still has programs"
// @Router /colleges/{id} [delete]
func (c *CollegeController) DeleteCollege(ctx *gin.Context) {
	if err := c.collegeService.DeleteCollege(ctx, ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.SuccessResponse{Message: "College deleted successfully"})
}
