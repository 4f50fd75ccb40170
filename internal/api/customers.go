package api

import (
	"net/http"

	"airline-reservation/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) createCustomer(c *gin.Context) {
	var req models.Customer
	if !bindJSON(c, &req) {
		return
	}
	req.ID = 0

	customer, err := h.booking.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "Failed to create customer", err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.booking.ListCustomers(c.Request.Context())
	if err != nil {
		h.writeError(c, "Failed to list customers", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (h *Handler) getCustomer(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}

	customer, err := h.booking.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Customer not found", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) updateCustomer(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}
	var req models.Customer
	if !bindJSON(c, &req) {
		return
	}
	req.ID = id

	customer, err := h.booking.UpdateCustomer(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "Failed to update customer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}

	if err := h.booking.DeleteCustomer(c.Request.Context(), id); err != nil {
		h.writeError(c, "Failed to delete customer", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) customerReservations(c *gin.Context) {
	id, ok := parseID(c, "customer")
	if !ok {
		return
	}

	reservations, err := h.booking.CustomerReservations(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "Failed to list reservations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}
