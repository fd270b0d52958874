package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"convert-gateway/api/response"
	"convert-gateway/logging"
	"convert-gateway/service"
	"convert-gateway/storage/postgres"
	"convert-gateway/types"
)

const defaultListLimit = 20

type ConvertHandler struct {
	svc          *service.ConversionService
	maxUpload    int64
	exposeErrors bool
	log          logging.Logger
}

func NewConvertHandler(svc *service.ConversionService, maxUpload int64, exposeErrors bool, log logging.Logger) *ConvertHandler {
	if log == nil {
		log = logging.NoOp()
	}
	return &ConvertHandler{
		svc:          svc,
		maxUpload:    maxUpload,
		exposeErrors: exposeErrors,
		log:          log,
	}
}

// Convert stages the uploaded file and runs the converter on it.
func (h *ConvertHandler) Convert(c *gin.Context) {
	h.log.Debug("received conversion request", "remote", c.ClientIP())
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	part, filename, err := readFilePart(c.Request)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer part.Close()

	res, err := h.svc.Convert(c.Request.Context(), filename, part)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, types.ConvertResponse{
		Success:  true,
		Filename: res.OriginalName,
		ID:       res.ID,
	})
}

// Health is the liveness probe.
func (h *ConvertHandler) Health(c *gin.Context) {
	response.Success(c, types.MessageResponse{Message: response.MsgServerRunning})
}

// Get returns one conversion record.
func (h *ConvertHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.failLookup(c, err)
		return
	}
	response.Success(c, rec)
}

// List returns the most recent conversion records.
func (h *ConvertHandler) List(c *gin.Context) {
	var q types.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Fail(c, http.StatusBadRequest, response.MsgBadRequest)
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultListLimit
	}

	recs, err := h.svc.List(c.Request.Context(), q.Limit)
	if err != nil {
		h.failLookup(c, err)
		return
	}
	response.Success(c, recs)
}

func (h *ConvertHandler) fail(c *gin.Context, err error) {
	kind := service.KindOf(err)
	if kind == service.KindValidation {
		h.log.Warn("rejected upload", "kind", kind, "error", err)
	} else {
		h.log.Error("processing upload failed", "kind", kind, "error", err)
	}
	response.Error(c, err, h.exposeErrors)
}

func (h *ConvertHandler) failLookup(c *gin.Context, err error) {
	if errors.Is(err, postgres.ErrNotFound) || errors.Is(err, service.ErrHistoryDisabled) {
		response.Error(c, err, false)
		return
	}
	h.log.Error("reading conversion history failed", "error", err)
	response.Fail(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
