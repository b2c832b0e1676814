package repositories

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
)

func param(c *fiber.Ctx, key string) (string, error) {
	value, err := url.PathUnescape(c.Params(key))
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return value, nil
}

func machineParams(c *fiber.Ctx) (string, string, error) {
	name, err := param(c, "name")
	if err != nil {
		return "", "", err
	}

	machine, err := param(c, "machine")
	if err != nil {
		return "", "", err
	}

	return name, machine, nil
}
