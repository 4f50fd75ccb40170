package api

import (
	"net/http"

	"airline-reservation/internal/models"
	"airline-reservation/internal/service"

	"github.com/gin-gonic/gin"
)

type settleRefundRequest struct {
	Status models.RefundStatus `json:"status" binding:"required"`
}

// createReservation handles seat booking. A retried request carrying the
// same Idempotency-Key returns the first reservation with 200.
func (h *Handler) createReservation(c *gin.Context) {
	var req service.BookingRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.TravelDate.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": "travel_date is required",
		})
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	resp, err := h.booking.BookReservation(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to create reservation", err)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

func (h *Handler) listReservations(c *gin.Context) {
	status := models.ReservationStatus(c.Query("status"))
	if status != "" && !validReservationStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reservation status"})
		return
	}

	reservations, err := h.booking.ListReservations(c.Request.Context(), status)
	if err != nil {
		h.writeError(c, "Failed to list reservations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}

func (h *Handler) getReservation(c *gin.Context) {
	id, ok := parseID(c, "reservation")
	if !ok {
		return
	}

	r, err := h.booking.GetReservation(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Reservation not found", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) cancelReservation(c *gin.Context) {
	id, ok := parseID(c, "reservation")
	if !ok {
		return
	}

	r, err := h.booking.CancelReservation(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to cancel reservation", err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) refundReservation(c *gin.Context) {
	id, ok := parseID(c, "reservation")
	if !ok {
		return
	}
	var req service.RefundRequest
	if !bindJSON(c, &req) {
		return
	}

	refund, err := h.refunds.ProcessRefund(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, "Failed to process refund", err)
		return
	}
	c.JSON(http.StatusCreated, refund)
}

func (h *Handler) listRefunds(c *gin.Context) {
	refunds, err := h.refunds.ListRefunds(c.Request.Context(), models.RefundStatus(c.Query("status")))
	if err != nil {
		h.writeError(c, "Failed to list refunds", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"refunds": refunds})
}

func (h *Handler) getRefund(c *gin.Context) {
	id, ok := parseID(c, "refund")
	if !ok {
		return
	}

	refund, err := h.refunds.GetRefund(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Refund not found", err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

func (h *Handler) settleRefund(c *gin.Context) {
	id, ok := parseID(c, "refund")
	if !ok {
		return
	}
	var req settleRefundRequest
	if !bindJSON(c, &req) {
		return
	}

	refund, err := h.refunds.SettleRefund(c.Request.Context(), id, req.Status)
	if err != nil {
		h.writeError(c, "Failed to settle refund", err)
		return
	}
	c.JSON(http.StatusOK, refund)
}

func (h *Handler) autoRefund(c *gin.Context) {
	summary, err := h.refunds.AutoProcessAll(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to process refunds", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func validReservationStatus(s models.ReservationStatus) bool {
	for _, known := range models.ReservationStatuses {
		if s == known {
			return true
		}
	}
	return false
}
