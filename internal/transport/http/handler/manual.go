package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"manualpilot/internal/app"
	"manualpilot/internal/platform/rabbitmq"
	"manualpilot/internal/transport/http/response"
	"manualpilot/internal/vectorstore"
)

type ManualHandler struct {
	ingestService *app.IngestService
	manualService *app.ManualService
	publisher     *rabbitmq.IngestPublisher
}

type IngestRequest struct {
	URL   string `json:"url" binding:"required"`
	Title string `json:"title" binding:"max=512"`
}

func NewManualHandler(ingestService *app.IngestService, manualService *app.ManualService, publisher *rabbitmq.IngestPublisher) *ManualHandler {
	return &ManualHandler{
		ingestService: ingestService,
		manualService: manualService,
		publisher:     publisher,
	}
}

func (h *ManualHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	manual, err := h.ingestService.Ingest(c.Request.Context(), app.IngestInput{
		URL:   req.URL,
		Title: req.Title,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidURL):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrExtraction):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrPartialWrite):
			response.Error(c, http.StatusInternalServerError, response.CodePartialIngest, "ingest incomplete: "+err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ingest failed")
		}
		return
	}

	response.OK(c, manual)
}

// IngestAsync queues the ingestion instead of running it inline. The URL gets
// the same validation as the synchronous path so obvious junk fails fast.
func (h *ManualHandler) IngestAsync(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if err := app.ValidateIngestURL(req.URL); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}

	job := rabbitmq.IngestJob{URL: req.URL, Title: req.Title}
	if err := h.publisher.Publish(c.Request.Context(), job); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "queue ingest failed")
		return
	}

	response.Accepted(c, gin.H{"url": req.URL})
}

func (h *ManualHandler) List(c *gin.Context) {
	manuals, err := h.manualService.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list manuals failed")
		return
	}
	response.OK(c, manuals)
}

func (h *ManualHandler) Delete(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil || id == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid manual id")
		return
	}

	if err := h.manualService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, vectorstore.ErrManualNotFound) {
			response.Error(c, http.StatusNotFound, response.CodeManualNotFound, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete manual failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_manual_id": id})
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}
