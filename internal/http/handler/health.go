package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"archieos.app/intake/internal/http/dto"
)

type HealthHandler struct {
	service string
}

func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service}
}

func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Service: h.service})
}
