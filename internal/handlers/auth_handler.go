package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/launchloop/launchloop-backend/internal/dto"
	"github.com/launchloop/launchloop-backend/internal/middleware"
	"github.com/launchloop/launchloop-backend/internal/services"
	"github.com/launchloop/launchloop-backend/internal/store"
	"github.com/launchloop/launchloop-backend/internal/wallet"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Challenge returns the exact message text the client must sign. GET
// /api/auth/challenge?wallet=...&email=... where email selects the link flavor.
func (h *AuthHandler) Challenge(c *fiber.Ctx) error {
	walletAddr := c.Query("wallet")
	if walletAddr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "wallet query parameter is required",
		})
	}

	var msg string
	if email := c.Query("email"); email != "" {
		msg = wallet.LinkMessage(walletAddr, email, time.Now())
	} else {
		msg = wallet.LoginMessage(walletAddr, time.Now())
	}
	return c.JSON(dto.ChallengeResponse{Message: msg})
}

func (h *AuthHandler) WalletLogin(c *fiber.Ctx) error {
	var req dto.WalletLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.PublicKey == "" || req.Signature == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "public_key, signature and message are required",
		})
	}

	resp, err := h.authService.LoginWithWallet(c.UserContext(), req.PublicKey, req.Signature, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSignature) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(resp)
}

func (h *AuthHandler) EmailLogin(c *fiber.Ctx) error {
	var req dto.EmailLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Email == "" || req.ProviderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "email and provider_id are required",
		})
	}

	resp, err := h.authService.LoginWithEmail(c.UserContext(), req.Email, req.ProviderID, req.Username)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(resp)
}

func (h *AuthHandler) LinkWallet(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.LinkWalletRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.WalletAddress == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "wallet_address and message are required",
		})
	}

	cred, ok := credentialFromRequest(&req)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "credential_kind must be ed25519 or passkey with a matching payload",
		})
	}

	resp, err := h.authService.LinkWallet(c.UserContext(), userID, req.WalletAddress, req.Message, cred)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidSignature):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		case errors.Is(err, store.ErrWalletAlreadyLinked):
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
	}

	return c.JSON(resp)
}

func credentialFromRequest(req *dto.LinkWalletRequest) (wallet.Credential, bool) {
	switch wallet.Kind(req.CredentialKind) {
	case wallet.KindEd25519:
		if req.PublicKey == "" || req.Signature == "" {
			return wallet.Credential{}, false
		}
		return wallet.Credential{
			Kind: wallet.KindEd25519,
			Ed25519: &wallet.Ed25519Credential{
				PublicKey: req.PublicKey,
				Signature: req.Signature,
			},
		}, true
	case wallet.KindPasskey:
		if req.Passkey == nil {
			return wallet.Credential{}, false
		}
		return wallet.Credential{
			Kind: wallet.KindPasskey,
			Passkey: &wallet.PasskeyAssertion{
				PublicKey:         req.Passkey.PublicKey,
				AuthenticatorData: req.Passkey.AuthenticatorData,
				ClientDataJSON:    req.Passkey.ClientDataJSON,
				Signature:         req.Passkey.Signature,
			},
		}, true
	default:
		return wallet.Credential{}, false
	}
}
