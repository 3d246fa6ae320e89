package controller

import (
	"errors"

	"cursoteca_backend/internal/service"
	"cursoteca_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// Enroll godoc
// @Summary Inscribirse en un curso
// @Tags enrollments
// @Produce  json
// @Param   id path string true "ID del curso"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{id}/enroll [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	e, err := c.EnrollmentService.Enroll(claims.UserID, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadyEnrolled):
			util.Error(ctx, 409, "Ya estás inscrito en este curso")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, e)
}

// ListEnrollments godoc
// @Summary Mis inscripciones
// @Tags enrollments
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Security BearerAuth
// @Router /api/enrollments [get]
func (c *EnrollmentController) ListEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.EnrollmentService.List(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, list)
}

// GetEnrollment godoc
// @Summary Inscripción en un curso
// @Description Devuelve la inscripción con el progreso por módulo y vídeo.
// @Description El motor de reproducción la consulta al abrir el curso y en
// @Description su ventana periódica de refresco.
// @Tags enrollments
// @Produce  json
// @Param   courseId path string true "ID del curso"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/enrollments/{courseId} [get]
func (c *EnrollmentController) GetEnrollment(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	e, err := c.EnrollmentService.Get(ctx.Request.Context(), claims.UserID, ctx.Param("courseId"))
	if err != nil {
		if errors.Is(err, util.ErrNotEnrolled) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, e)
}

// SaveVideoProgress godoc
// @Summary Guardar progreso de vídeo
// @Description Fusiona una instantánea del motor de reproducción con el
// @Description progreso guardado. watchedSeconds y maxReachedSeconds nunca
// @Description retroceden; el porcentaje del curso se recalcula en el
// @Description servidor.
// @Tags enrollments
// @Accept  json
// @Produce  json
// @Param   courseId path string true "ID del curso"
// @Param   body body service.SaveProgressRequest true "Instantánea de progreso"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/enrollments/{courseId}/save-video-progress [post]
func (c *EnrollmentController) SaveVideoProgress(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SaveProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	e, err := c.EnrollmentService.SaveVideoProgress(ctx.Request.Context(), claims.UserID, ctx.Param("courseId"), req)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotEnrolled),
			errors.Is(err, util.ErrCourseNotFound),
			errors.Is(err, util.ErrModuleNotFound),
			errors.Is(err, util.ErrVideoNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, e)
}

// CompleteModule godoc
// @Summary Completar un módulo sin vídeos
// @Description Marca como completado un módulo sin vídeos reproducibles al
// @Description visitarlo. Los módulos con vídeos se completan viéndolos.
// @Tags enrollments
// @Produce  json
// @Param   courseId path string true "ID del curso"
// @Param   moduleId path string true "ID del módulo"
// @Success 200 {object} util.Response{data=model.Enrollment}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/enrollments/{courseId}/modules/{moduleId}/complete [post]
func (c *EnrollmentController) CompleteModule(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	e, err := c.EnrollmentService.CompleteModule(ctx.Request.Context(), claims.UserID, ctx.Param("courseId"), ctx.Param("moduleId"))
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotEnrolled),
			errors.Is(err, util.ErrCourseNotFound),
			errors.Is(err, util.ErrModuleNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrModuleHasVideos):
			util.BadRequest(ctx, "el módulo tiene vídeos y se completa reproduciéndolos")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, e)
}

// ResumeTarget godoc
// @Summary Punto de reanudación
// @Description Indica en qué módulo y vídeo aterrizar al reabrir el curso
// @Tags enrollments
// @Produce  json
// @Param   courseId path string true "ID del curso"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/enrollments/{courseId}/resume [get]
func (c *EnrollmentController) ResumeTarget(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	moduleID, videoID, err := c.EnrollmentService.ResumeTarget(ctx.Request.Context(), claims.UserID, ctx.Param("courseId"))
	if err != nil {
		if errors.Is(err, util.ErrNotEnrolled) || errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, gin.H{"moduleId": moduleID, "videoId": videoID})
}
