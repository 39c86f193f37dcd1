package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/conciergehq/concierge-backend/internal/storage"
)

// AppointmentHandler exposes read access to confirmed appointments
type AppointmentHandler struct {
	store  storage.AppointmentStore
	logger *logrus.Logger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(store storage.AppointmentStore, logger *logrus.Logger) *AppointmentHandler {
	return &AppointmentHandler{store: store, logger: logger}
}

// GetAppointment returns one appointment by reference
func (h *AppointmentHandler) GetAppointment(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Appointment ID is required",
		})
	}

	appt, err := h.store.GetAppointment(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, storage.ErrAppointmentNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Appointment not found",
			})
		}
		h.logger.WithError(err).Error("failed to load appointment")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load appointment",
		})
	}

	return c.JSON(fiber.Map{
		"appointment": appt,
	})
}

// ListAppointments returns all confirmed appointments
func (h *AppointmentHandler) ListAppointments(c *fiber.Ctx) error {
	appointments, err := h.store.ListAppointments(c.UserContext())
	if err != nil {
		h.logger.WithError(err).Error("failed to list appointments")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list appointments",
		})
	}

	return c.JSON(fiber.Map{
		"appointments": appointments,
		"count":        len(appointments),
	})
}
