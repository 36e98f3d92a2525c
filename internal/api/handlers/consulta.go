package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/detran-api/internal/models"
	"github.com/nexconsult/detran-api/internal/services"
	"github.com/nexconsult/detran-api/internal/utils"
)

// ConsultaHandler handles vehicle consultation requests
type ConsultaHandler struct {
	vehicleService services.VehicleServiceInterface
	logger         *logrus.Logger
}

// NewConsultaHandler creates a new consultation handler
func NewConsultaHandler(vehicleService services.VehicleServiceInterface, logger *logrus.Logger) *ConsultaHandler {
	return &ConsultaHandler{
		vehicleService: vehicleService,
		logger:         logger,
	}
}

// PostConsulta handles vehicle consultation by request body
// @Summary Consulta veículo por placa
// @Description Consulta dados do veículo e débitos vencidos no DetranNet SC
// @Tags Consulta
// @Accept json
// @Produce json
// @Param request body models.ConsultaRequest true "Placa do veículo"
// @Success 200 {object} models.VehicleResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /consulta [post]
func (h *ConsultaHandler) PostConsulta(c *gin.Context) {
	var request models.ConsultaRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid request format",
			Message:   err.Error(),
			Code:      "INVALID_REQUEST",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	h.consultar(c, request.Plate)
}

// GetConsulta handles vehicle consultation by path parameter
// @Summary Consulta veículo por placa (GET)
// @Description Consulta dados do veículo e débitos vencidos no DetranNet SC
// @Tags Consulta
// @Produce json
// @Param placa path string true "Placa do veículo (7 caracteres)" example(ABC1234)
// @Success 200 {object} models.VehicleResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /consulta/{placa} [get]
func (h *ConsultaHandler) GetConsulta(c *gin.Context) {
	h.consultar(c, c.Param("placa"))
}

func (h *ConsultaHandler) consultar(c *gin.Context, plate string) {
	start := time.Now()
	requestID := c.GetString("request_id")

	cleaned, valid := utils.NormalizePlate(plate)
	if !valid {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"placa":      plate,
			"cleaned":    cleaned,
		}).Warn("Invalid plate format")

		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid plate format",
			Message:   "A placa deve conter exatamente 7 caracteres alfanuméricos",
			Code:      "INVALID_PLATE",
			Timestamp: time.Now(),
			Path:      c.Request.URL.Path,
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"placa":      cleaned,
	}).Info("Processing vehicle consultation")

	result, diags, err := h.vehicleService.Consultar(c.Request.Context(), cleaned)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"placa":      cleaned,
			"error":      err.Error(),
			"duration":   time.Since(start),
		}).Error("Vehicle consultation failed")

		h.writeError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"request_id":  requestID,
		"placa":       cleaned,
		"duration":    time.Since(start),
		"found":       result.FoundInDetran,
		"diagnostics": len(diags),
	}).Info("Vehicle consultation completed successfully")

	c.JSON(http.StatusOK, result)
}

// writeError maps service errors to HTTP responses. Each sentinel carries
// its own status; anything unrecognized is a 500.
func (h *ConsultaHandler) writeError(c *gin.Context, err error) {
	path := c.Request.URL.Path

	switch {
	case errors.Is(err, services.ErrInvalidPlate):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:     "Invalid plate format",
			Message:   err.Error(),
			Code:      "INVALID_PLATE",
			Timestamp: time.Now(),
			Path:      path,
		})
	case errors.Is(err, services.ErrMissingCredentials):
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Missing credentials",
			Message:   err.Error(),
			Code:      "MISSING_CREDENTIALS",
			Timestamp: time.Now(),
			Path:      path,
		})
	case errors.Is(err, services.ErrNavigation):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:     "Upstream navigation failed",
			Message:   err.Error(),
			Code:      "NAVIGATION_ERROR",
			Timestamp: time.Now(),
			Path:      path,
		})
	case errors.Is(err, services.ErrInputNotFound):
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:     "Upstream page layout changed",
			Message:   err.Error(),
			Code:      "INPUT_NOT_FOUND",
			Timestamp: time.Now(),
			Path:      path,
		})
	case errors.Is(err, services.ErrSessionBusy):
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error:     "Too many concurrent consultations",
			Message:   err.Error(),
			Code:      "SESSION_BUSY",
			Timestamp: time.Now(),
			Path:      path,
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, models.ErrorResponse{
			Error:     "Consultation timeout",
			Message:   "A consulta excedeu o tempo limite. Tente novamente mais tarde",
			Code:      "TIMEOUT",
			Timestamp: time.Now(),
			Path:      path,
		})
	default:
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:     "Internal server error",
			Message:   "An unexpected error occurred while processing your request",
			Code:      "INTERNAL_ERROR",
			Timestamp: time.Now(),
			Path:      path,
		})
	}
}
