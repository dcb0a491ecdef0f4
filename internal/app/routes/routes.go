package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/ssis-app/ssis/internal/app/controllers"
	"github.com/ssis-app/ssis/internal/middleware"
)

// Controllers groups the handlers mounted by SetupRouter
type Controllers struct {
	Auth    *controllers.AuthController
	College *controllers.CollegeController
	Program *controllers.ProgramController
	Student *controllers.StudentController
	Health  *controllers.HealthController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	api := router.Group("/api")

	api.GET("/health", c.Health.Health)

	// --- Public Auth routes ---
	auth := api.Group("/auth")
	{
		auth.POST("/signup", c.Auth.Signup)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/logout", c.Auth.Logout)
		auth.GET("/ping", authMiddleware.JWTAuth(), c.Auth.Ping)
	}

	// --- Authenticated Routes Group ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	colleges := authenticated.Group("/colleges")
	{
		colleges.GET("", c.College.ListColleges)
		colleges.GET("/dropdown", c.College.GetDropdown)
		colleges.GET("/total", c.College.GetTotal)
		colleges.POST("/create", c.College.CreateCollege)
		colleges.GET("/:id", c.College.GetCollege)
		colleges.PUT("/:id", c.College.UpdateCollege)
		colleges.DELETE("/:id", c.College.DeleteCollege)
	}

	programs := authenticated.Group("/programs")
	{
		programs.GET("", c.Program.ListPrograms)
		programs.GET("/dropdown", c.Program.GetDropdown)
		programs.GET("/total", c.Program.GetTotal)
		programs.POST("/create", c.Program.CreateProgram)
		programs.GET("/:id", c.Program.GetProgram)
		programs.PUT("/:id", c.Program.UpdateProgram)
		programs.DELETE("/:id", c.Program.DeleteProgram)
	}

	students := authenticated.Group("/students")
	{
		students.GET("", c.Student.ListStudents)
		students.GET("/dropdown", c.Student.GetDropdown)
		students.GET("/total", c.Student.GetTotal)
		students.GET("/count-by-program", c.Student.CountByProgram)
		students.GET("/count-by-gender", c.Student.CountByGender)
		students.GET("/by-program", c.Student.ListByProgram)
		students.GET("/export", c.Student.ExportStudents)
		students.POST("/import", c.Student.ImportStudents)
		students.POST("/create", c.Student.CreateStudent)
		students.GET("/:id", c.Student.GetStudent)
		students.PUT("/:id", c.Student.UpdateStudent)
		students.DELETE("/:id", c.Student.DeleteStudent)
		students.POST("/:id/photo", c.Student.UploadPhoto)
	}
}
