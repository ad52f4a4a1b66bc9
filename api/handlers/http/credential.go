package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/clearpath-sec/cloudscan/api/service"
)

func CreateCredential(svcGetter ServiceGetter[*service.CredentialService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		var req service.CredentialRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Failed to parse request body"))
		}

		response, err := srv.Create(c.UserContext(), claims.UserID, &req)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentialInput) || errors.Is(err, service.ErrUnsupportedProviderType) {
				return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.Status(fiber.StatusCreated).JSON(response)
	}
}

func GetCredential(svcGetter ServiceGetter[*service.CredentialService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Credential ID is required"))
		}

		response, err := srv.Get(c.UserContext(), id, claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrCredentialNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(errorBody("Credential not found"))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func ListCredentials(svcGetter ServiceGetter[*service.CredentialService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		response, err := srv.List(c.UserContext(), claims.UserID, c.Query("provider"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func UpdateCredential(svcGetter ServiceGetter[*service.CredentialService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Credential ID is required"))
		}

		var req service.CredentialRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Failed to parse request body"))
		}

		response, err := srv.Update(c.UserContext(), id, claims.UserID, &req)
		if err != nil {
			if errors.Is(err, service.ErrCredentialNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(errorBody("Credential not found"))
			}
			if errors.Is(err, service.ErrInvalidCredentialInput) || errors.Is(err, service.ErrUnsupportedProviderType) {
				return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func DeleteCredential(svcGetter ServiceGetter[*service.CredentialService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Credential ID is required"))
		}

		if err := srv.Delete(c.UserContext(), id, claims.UserID); err != nil {
			if errors.Is(err, service.ErrCredentialNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(errorBody("Credential not found"))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
