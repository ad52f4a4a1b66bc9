package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/clearpath-sec/cloudscan/api/service"
)

func CreateSchedule(svcGetter ServiceGetter[*service.ScheduleService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		var req service.ScheduleRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Failed to parse request body"))
		}

		response, err := srv.Create(c.UserContext(), claims.UserID, &req)
		if err != nil {
			return scheduleErrorStatus(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(response)
	}
}

func GetSchedule(svcGetter ServiceGetter[*service.ScheduleService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Schedule ID is required"))
		}

		response, err := srv.Get(c.UserContext(), id, claims.UserID)
		if err != nil {
			return scheduleErrorStatus(c, err)
		}
		return c.JSON(response)
	}
}

func ListSchedules(svcGetter ServiceGetter[*service.ScheduleService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		response, err := srv.List(c.UserContext(), claims.UserID, queryBoolPtr(c, "enabled"))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
		}
		return c.JSON(response)
	}
}

func UpdateSchedule(svcGetter ServiceGetter[*service.ScheduleService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Schedule ID is required"))
		}

		var req service.ScheduleRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Failed to parse request body"))
		}

		response, err := srv.Update(c.UserContext(), id, claims.UserID, &req)
		if err != nil {
			return scheduleErrorStatus(c, err)
		}
		return c.JSON(response)
	}
}

func DeleteSchedule(svcGetter ServiceGetter[*service.ScheduleService]) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Schedule ID is required"))
		}

		if err := srv.Delete(c.UserContext(), id, claims.UserID); err != nil {
			return scheduleErrorStatus(c, err)
		}
		return c.JSON(fiber.Map{"success": true})
	}
}

func SetScheduleEnabled(svcGetter ServiceGetter[*service.ScheduleService], enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		srv := svcGetter(c.UserContext())
		claims := userClaims(c)
		if claims == nil {
			return fiber.ErrUnauthorized
		}

		id, err := paramID(c, "id")
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody("Schedule ID is required"))
		}

		response, err := srv.SetEnabled(c.UserContext(), id, claims.UserID, enabled)
		if err != nil {
			return scheduleErrorStatus(c, err)
		}
		return c.JSON(response)
	}
}

func scheduleErrorStatus(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrScheduleNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorBody("Schedule not found"))
	case errors.Is(err, service.ErrInvalidScheduleInput),
		errors.Is(err, service.ErrInvalidCronExpr):
		return c.Status(fiber.StatusBadRequest).JSON(errorBody(err.Error()))
	case errors.Is(err, service.ErrCredentialNotFound):
		return c.Status(fiber.StatusNotFound).JSON(errorBody(err.Error()))
	}
	return c.Status(fiber.StatusInternalServerError).JSON(errorBody(err.Error()))
}
