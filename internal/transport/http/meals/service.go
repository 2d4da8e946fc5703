package meals

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"calotrack-server-go/internal/domain/meal"
	"calotrack-server-go/internal/persistence"
	"calotrack-server-go/internal/platform/config"
	"calotrack-server-go/internal/platform/errors"
	"calotrack-server-go/internal/platform/logging"
	httptransport "calotrack-server-go/internal/transport/http"
)

// Service is the HTTP surface of the meal lifecycle.
type Service struct {
	logger     *logging.Logger
	config     *config.Config
	controller *meal.Controller
	repo       *persistence.Repository
}

// NewService creates the meal transport service.
func NewService(
	cfg *config.Config,
	logger *logging.Logger,
	controller *meal.Controller,
	repo *persistence.Repository,
) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.KindConfig, "meals.new", "config is required")
	}
	if controller == nil {
		return nil, errors.New(errors.KindConfig, "meals.new", "controller is required")
	}
	if repo == nil {
		return nil, errors.New(errors.KindConfig, "meals.new", "repository is required")
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}

	return &Service{
		logger:     logger,
		config:     cfg,
		controller: controller,
		repo:       repo,
	}, nil
}

// Register mounts the meal lifecycle routes on the given group.
func (s *Service) Register(ctx context.Context, router *gin.RouterGroup) error {
	router.POST("/meals/capture", s.handleCapture)
	router.POST("/meals/analyze", s.handleAnalyze)
	router.POST("/meals/reanalyze", s.handleReanalyze)

	router.GET("/meals/draft", s.handleGetDraft)
	router.PATCH("/meals/draft", s.handlePatchDraft)
	router.DELETE("/meals/draft", s.handleDiscard)

	router.POST("/meals/draft/ingredients", s.handleAddIngredient)
	router.PATCH("/meals/draft/ingredients/:id", s.handlePatchIngredient)
	router.DELETE("/meals/draft/ingredients/:id", s.handleRemoveIngredient)
	router.POST("/meals/draft/ingredients/:id/drag-release", s.handleDragRelease)

	router.POST("/meals/commit", s.handleCommit)
	router.POST("/meals/update", s.handleUpdate)

	router.GET("/meals/records/:id", s.handleGetRecord)

	s.logger.InfoTag("HTTP", "meal routes registered")
	return nil
}

func (s *Service) handleCapture(c *gin.Context) {
	if err := s.controller.BeginCapture(c.Request.Context()); err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, s.controller.Snapshot(), "capture started")
}

func (s *Service) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "image payload is required", nil)
		return
	}

	snap, err := s.controller.Analyze(c.Request.Context(), req.Image)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, snap, "analysis complete")
}

func (s *Service) handleReanalyze(c *gin.Context) {
	var req ReanalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	snap, err := s.controller.Reanalyze(c.Request.Context(), req.Notes)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, snap, "re-analysis complete")
}

func (s *Service) handleGetDraft(c *gin.Context) {
	httptransport.RespondSuccess(c, http.StatusOK, s.controller.Snapshot(), "")
}

func (s *Service) handlePatchDraft(c *gin.Context) {
	var req DraftPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if req.Name != nil {
		if err := s.controller.SetName(*req.Name); err != nil {
			httptransport.RespondDomainError(c, err)
			return
		}
	}
	if req.Description != nil {
		if err := s.controller.SetDescription(*req.Description); err != nil {
			httptransport.RespondDomainError(c, err)
			return
		}
	}
	httptransport.RespondSuccess(c, http.StatusOK, s.controller.Snapshot(), "draft updated")
}

func (s *Service) handleDiscard(c *gin.Context) {
	if err := s.controller.Discard(c.Request.Context()); err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, s.controller.Snapshot(), "draft discarded")
}

func (s *Service) handleAddIngredient(c *gin.Context) {
	var req AddIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "ingredient name is required", nil)
		return
	}

	ing, err := s.controller.AddIngredient(req.Name)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusCreated, ing, "ingredient added")
}

func (s *Service) handlePatchIngredient(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	id := c.Param("id")
	for field, value := range fields {
		if err := s.controller.SetIngredientField(id, field, value); err != nil {
			httptransport.RespondDomainError(c, err)
			return
		}
	}
	httptransport.RespondSuccess(c, http.StatusOK, s.controller.Snapshot(), "ingredient updated")
}

func (s *Service) handleRemoveIngredient(c *gin.Context) {
	if err := s.controller.RemoveIngredient(c.Param("id")); err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, s.controller.Snapshot(), "ingredient removed")
}

func (s *Service) handleDragRelease(c *gin.Context) {
	var req DragReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	removed, err := s.controller.ReleaseDrag(c.Param("id"), req.DX, req.DY)
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, DragReleaseResponse{Removed: removed}, "")
}

func (s *Service) handleCommit(c *gin.Context) {
	mealID, err := s.controller.Post(c.Request.Context())
	if err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusCreated, CommitResponse{MealID: mealID}, "meal committed")
}

func (s *Service) handleUpdate(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httptransport.RespondError(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if err := s.controller.Update(c.Request.Context(), req.Notes); err != nil {
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, s.controller.Snapshot(), "meal updated")
}

func (s *Service) handleGetRecord(c *gin.Context) {
	record, err := s.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.IsKind(err, errors.KindPersistence) {
			httptransport.RespondError(c, http.StatusNotFound, err.Error(), nil)
			return
		}
		httptransport.RespondDomainError(c, err)
		return
	}
	httptransport.RespondSuccess(c, http.StatusOK, record, "")
}
