package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-core-fx/fiberfx/handler"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"github.com/zync-tools/zyncmon/internal/daemon"
	"github.com/zync-tools/zyncmon/internal/repositories"
	"github.com/zync-tools/zyncmon/internal/server/validation"
	"github.com/zync-tools/zyncmon/internal/status"
	"go.uber.org/zap"
)

type Handler struct {
	reposSvc *repositories.Service
	commands *daemon.Commands

	validator *validator.Validate
	logger    *zap.Logger
}

func NewHandler(
	reposSvc *repositories.Service,
	commands *daemon.Commands,
	validator *validator.Validate,
	logger *zap.Logger,
) handler.Handler {
	return &Handler{
		reposSvc: reposSvc,
		commands: commands,

		validator: validator,
		logger:    logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r = r.Group("/repositories")

	r.Use(h.errorsHandler)
	r.Get("/", validation.DecorateWithQuery(h.validator, h.list))
	r.Get("/:name", h.get)
	r.Get("/:name/machines/:machine", h.getMachine)
	r.Post("/:name/machines/:machine/check", h.run(h.commands.Check))
	r.Post("/:name/machines/:machine/push", h.run(h.commands.Push))
}

func (h *Handler) list(c *fiber.Ctx, q *ListQuery) error {
	var filter *status.SyncStatus
	if q.Status != "" {
		s, err := status.ParseStatus(q.Status)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		filter = &s
	}

	repos := h.reposSvc.List(filter)

	return c.JSON(lo.Map(repos, func(repo status.Repository, _ int) RepositoryResponse {
		return toResponse(repo)
	}))
}

func (h *Handler) get(c *fiber.Ctx) error {
	name, err := param(c, "name")
	if err != nil {
		return err
	}

	repo, err := h.reposSvc.Get(name)
	if err != nil {
		return fmt.Errorf("failed to get repository: %w", err)
	}

	return c.JSON(toResponse(repo))
}

func (h *Handler) getMachine(c *fiber.Ctx) error {
	name, machineName, err := machineParams(c)
	if err != nil {
		return err
	}

	repo, machine, err := h.reposSvc.Machine(name, machineName)
	if err != nil {
		return fmt.Errorf("failed to get machine: %w", err)
	}

	return c.JSON(toMachineResponse(repo, machine))
}

func (h *Handler) run(action func(context.Context, string, string) (daemon.Result, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, machineName, err := machineParams(c)
		if err != nil {
			return err
		}

		res, err := action(c.UserContext(), name, machineName)
		if err != nil {
			return fmt.Errorf("failed to run command: %w", err)
		}

		return c.JSON(RunResponse{
			ID:         res.ID,
			Action:     string(res.Action),
			Repository: res.Repository,
			Machine:    res.Machine,
			ExitCode:   res.ExitCode,
			Output:     res.Output,
			Truncated:  res.Truncated,
			StartedAt:  res.StartedAt,
			DurationMs: res.Duration.Milliseconds(),
		})
	}
}

func (h *Handler) errorsHandler(c *fiber.Ctx) error {
	err := c.Next()
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, repositories.ErrNotAllowed), errors.Is(err, daemon.ErrBusy):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, daemon.ErrCommandFailed):
		h.logger.Warn("command failed", zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}

	return err //nolint:wrapcheck //already wrapped
}

func toResponse(repo status.Repository) RepositoryResponse {
	return RepositoryResponse{
		Name:   repo.Name,
		Status: status.Aggregate(repo),
		Master: MasterResponse{
			Name:  repo.MasterName,
			DirOK: repo.MasterDirOK,
		},
		Machines: lo.Map(repo.Machines, func(m status.Machine, _ int) MachineResponse {
			return toMachineResponse(repo, m)
		}),
	}
}

func toMachineResponse(repo status.Repository, m status.Machine) MachineResponse {
	return MachineResponse{
		Name:        m.Name,
		Status:      m.Status,
		SyncAllowed: repo.SyncAllowed(m),
	}
}
