package controller

import (
	"errors"
	"strconv"

	"cursoteca_backend/internal/service"
	"cursoteca_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CatalogService *service.CatalogService
}

func NewCourseController(catalogService *service.CatalogService) *CourseController {
	return &CourseController{CatalogService: catalogService}
}

// ListCourses godoc
// @Summary Listar cursos
// @Description Lista paginada del catálogo de cursos
// @Tags courses
// @Produce  json
// @Param   page  query int false "Página" default(1)
// @Param   limit query int false "Resultados por página" default(20)
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/courses [get]
func (c *CourseController) ListCourses(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	courses, total, err := c.CatalogService.ListCourses(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  courses,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// GetCourse godoc
// @Summary Detalle de un curso
// @Description Curso con sus módulos, vídeos y materiales. Los módulos
// @Description heredados exponen su vídeo único con id legacy-0.
// @Tags courses
// @Produce  json
// @Param   id path string true "ID del curso"
// @Success 200 {object} util.Response{data=service.CourseDetail}
// @Failure 404 {object} util.Response
// @Router /api/courses/{id} [get]
func (c *CourseController) GetCourse(ctx *gin.Context) {
	detail, err := c.CatalogService.GetCourse(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, detail)
}

// GetModule godoc
// @Summary Detalle de un módulo
// @Tags courses
// @Produce  json
// @Param   id path string true "ID del módulo"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/modules/{id} [get]
func (c *CourseController) GetModule(ctx *gin.Context) {
	mod, err := c.CatalogService.GetModule(ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrModuleNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, mod)
}

// UploadModuleVideo godoc
// @Summary Subir vídeo a un módulo
// @Description Sube un archivo de vídeo nativo; la duración real se obtiene
// @Description con ffprobe en el servidor
// @Tags courses
// @Accept  multipart/form-data
// @Produce  json
// @Param   id    path     string true  "ID del módulo"
// @Param   file  formData file   true  "Archivo de vídeo"
// @Param   title formData string false "Título del vídeo"
// @Param   order formData int    false "Posición dentro del módulo"
// @Success 201 {object} util.Response
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/modules/{id}/videos [post]
func (c *CourseController) UploadModuleVideo(ctx *gin.Context) {
	file, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "falta el archivo de vídeo")
		return
	}
	order, _ := strconv.Atoi(ctx.DefaultPostForm("order", "0"))

	video, err := c.CatalogService.UploadModuleVideo(
		ctx.Request.Context(),
		ctx.Param("id"),
		file,
		ctx.PostForm("title"),
		order,
	)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrUnsupportedVideoFormat):
			util.BadRequest(ctx, "formato de vídeo no soportado")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, video)
}
