package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/clearpath-sec/cloudscan/api/service"
)

func CreatePolicy(svcGetter ServiceGetter[*service.PolicyService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		var req service.PolicyRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Failed to parse request body"))
		}

		response, err := srv.Create(c.UserContext(), claims.UserID, &req)
		if err != nil {
			if errors.Is(err, service.ErrInvalidPolicyInput) || errors.Is(err, service.ErrPolicyToolMismatch) {
				return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.Status(fiber.StatusCreated).JSON(response)
	}
}

func GetPolicy(svcGetter ServiceGetter[*service.PolicyService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Policy ID is required"))
		}

		response, err := srv.Get(c.UserContext(), id, claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrPolicyNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(errorBody("Policy not found"))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func ListPolicies(svcGetter ServiceGetter[*service.PolicyService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		response, err := srv.List(c.UserContext(), claims.UserID, c.Query("provider"), c.Query("tool"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func UpdatePolicy(svcGetter ServiceGetter[*service.PolicyService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Policy ID is required"))
		}

		var req service.PolicyRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Failed to parse request body"))
		}

		response, err := srv.Update(c.UserContext(), id, claims.UserID, &req)
		if err != nil {
			if errors.Is(err, service.ErrPolicyNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(errorBody("Policy not found"))
			}
			if errors.Is(err, service.ErrInvalidPolicyInput) || errors.Is(err, service.ErrPolicyToolMismatch) {
				return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func DeletePolicy(svcGetter ServiceGetter[*service.PolicyService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Policy ID is required"))
		}

		if err := srv.Delete(c.UserContext(), id, claims.UserID); err != nil {
			if errors.Is(err, service.ErrPolicyNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(errorBody("Policy not found"))
			}
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
