package handlers

import (
	"errors"
	"net/http"

	"gasstation_backend/internal/services"
	"gasstation_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StationHandler holds the station service.
type StationHandler struct {
	stationService services.StationService
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(ss services.StationService) *StationHandler {
	return &StationHandler{stationService: ss}
}

// CreateStation handles the creation of a new station.
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req services.CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateStation: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	station, err := h.stationService.CreateStation(req)
	if err != nil {
		utils.LogError(err, "CreateStation: Error from stationService.CreateStation")
		if errors.Is(err, services.ErrStationNameTaken) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Station name already exists.", err.Error()))
		} else if errors.Is(err, services.ErrStationValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create station.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, station)
}

// GetStations handles listing all stations.
func (h *StationHandler) GetStations(c *gin.Context) {
	stations, err := h.stationService.GetStations()
	if err != nil {
		utils.LogError(err, "GetStations: Error from stationService.GetStations")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch stations.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stations, "total": len(stations)})
}

// GetStationByID handles fetching a single station by ID.
func (h *StationHandler) GetStationByID(c *gin.Context) {
	stationID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid station ID format.")
		return
	}

	station, err := h.stationService.GetStationByID(stationID)
	if err != nil {
		utils.LogError(err, "GetStationByID: Error from stationService.GetStationByID")
		if errors.Is(err, services.ErrStationNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Station not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch station.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, station)
}

// UpdateFuelPrice handles updating a station's fuel price.
func (h *StationHandler) UpdateFuelPrice(c *gin.Context) {
	stationID, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid station ID format.")
		return
	}

	var req services.UpdateFuelPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateFuelPrice: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	station, err := h.stationService.UpdateFuelPrice(stationID, req)
	if err != nil {
		utils.LogError(err, "UpdateFuelPrice: Error from stationService.UpdateFuelPrice")
		if errors.Is(err, services.ErrStationNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Station not found.", err.Error()))
		} else if errors.Is(err, services.ErrStationValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update fuel price.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, station)
}
