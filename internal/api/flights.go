package api

import (
	"net/http"

	"airline-reservation/internal/models"
	"airline-reservation/internal/service"

	"github.com/gin-gonic/gin"
)

type adjustFaresRequest struct {
	Multiplier float64 `json:"multiplier" binding:"omitempty,gt=0"`
	Preset     string  `json:"preset" binding:"omitempty,oneof=discount premium"`
}

func (h *Handler) createFlight(c *gin.Context) {
	var req models.Flight
	if !bindJSON(c, &req) {
		return
	}

	flight, err := h.booking.CreateFlight(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "Failed to create flight", err)
		return
	}
	c.JSON(http.StatusCreated, flight)
}

func (h *Handler) listFlights(c *gin.Context) {
	flights, err := h.booking.ListFlights(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to list flights", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flights": flights})
}

func (h *Handler) searchFlights(c *gin.Context) {
	flights, err := h.booking.SearchFlights(c.Request.Context(), c.Query("origin"), c.Query("destination"))
	if err != nil {
		h.writeError(c, "Failed to search flights", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flights": flights})
}

func (h *Handler) getFlight(c *gin.Context) {
	flight, err := h.booking.GetFlight(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, "Flight not found", err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *Handler) updateFlight(c *gin.Context) {
	var req models.Flight
	if !bindJSON(c, &req) {
		return
	}
	req.Code = c.Param("code")

	flight, err := h.booking.UpdateFlight(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "Failed to update flight", err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *Handler) deleteFlight(c *gin.Context) {
	if err := h.booking.DeleteFlight(c.Request.Context(), c.Param("code")); err != nil {
		h.writeError(c, "Failed to delete flight", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) availability(c *gin.Context) {
	a, err := h.booking.Availability(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.writeError(c, "Flight not found", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) setFares(c *gin.Context) {
	var req models.Fares
	if !bindJSON(c, &req) {
		return
	}

	flight, err := h.fares.SetFares(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		h.writeError(c, "Failed to set fares", err)
		return
	}
	c.JSON(http.StatusOK, flight)
}

func (h *Handler) quote(c *gin.Context) {
	class := models.SeatClass(c.DefaultQuery("class", string(models.SeatClassEconomy)))

	fare, err := h.fares.Quote(c.Request.Context(), c.Param("code"), class)
	if err != nil {
		h.writeError(c, "Failed to quote fare", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"flight_code": models.CodeKey(c.Param("code")),
		"seat_class":  class,
		"fare":        fare,
	})
}

func (h *Handler) fareSummary(c *gin.Context) {
	summary, err := h.fares.Summary(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to summarize fares", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) adjustFares(c *gin.Context) {
	var req adjustFaresRequest
	if !bindJSON(c, &req) {
		return
	}

	multiplier := req.Multiplier
	switch req.Preset {
	case "discount":
		multiplier = service.DiscountMultiplier
	case "premium":
		multiplier = service.PremiumMultiplier
	}
	if multiplier == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multiplier or preset is required"})
		return
	}

	flights, err := h.fares.AdjustFares(c.Request.Context(), multiplier)
	if err != nil {
		h.writeError(c, "Failed to adjust fares", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"multiplier": multiplier,
		"flights":    flights,
	})
}
