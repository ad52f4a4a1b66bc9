package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/clearpath-sec/cloudscan/api/service"
)

func SubmitScan(svcGetter ServiceGetter[*service.ScanService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		var req service.SubmitScanRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Failed to parse request body"))
		}

		response, err := srv.Submit(c.UserContext(), claims.UserID, &req)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidScanInput),
				errors.Is(err, service.ErrToolProviderPair),
				errors.Is(err, service.ErrPolicyMismatch):
				return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
			case errors.Is(err, service.ErrCredentialNotFound),
				errors.Is(err, service.ErrPolicyNotFound):
				return c.Status(fiber.StatusNotFound).JSON(errorBody(err.Error()))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.Status(fiber.StatusAccepted).JSON(response)
	}
}

func GetScan(svcGetter ServiceGetter[*service.ScanService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Scan ID is required"))
		}

		response, err := srv.Get(c.UserContext(), id, claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrScanNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(errorBody("Scan not found"))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func ListScans(svcGetter ServiceGetter[*service.ScanService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		response, err := srv.List(c.UserContext(), claims.UserID,
			c.Query("status"), c.Query("provider"), c.Query("tool"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func GetScanFindings(svcGetter ServiceGetter[*service.ScanService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Scan ID is required"))
		}

		response, err := srv.GetFindings(c.UserContext(), id, claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrScanNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(errorBody("Scan not found"))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}
