package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/launchloop/launchloop-backend/internal/dto"
	"github.com/launchloop/launchloop-backend/internal/middleware"
	"github.com/launchloop/launchloop-backend/internal/models"
	"github.com/launchloop/launchloop-backend/internal/services"
	"github.com/launchloop/launchloop-backend/internal/store"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.PaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	// Recipient may be empty: the service then expects the platform wallet.
	if req.TxHash == "" || req.Amount <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "tx_hash and a positive amount are required",
		})
	}
	switch req.Type {
	case models.PaymentTypeTip, models.PaymentTypeBounty, models.PaymentTypeReward:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "type must be tip, bounty or reward",
		})
	}

	rec, err := h.paymentService.VerifyAndRecord(c.UserContext(), userID, &req)
	if err != nil {
		// Unlike auth rejections, payment failures are specific: the caller
		// is the legitimate payer troubleshooting their own submission.
		switch {
		case errors.Is(err, store.ErrDuplicateTransaction):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, services.ErrInvalidTransaction),
			errors.Is(err, services.ErrRecipientMismatch),
			errors.Is(err, services.ErrAmountMismatch):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

func (h *PaymentHandler) List(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	resp, err := h.paymentService.ListPayments(c.UserContext(), userID, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}
	return c.JSON(resp)
}
