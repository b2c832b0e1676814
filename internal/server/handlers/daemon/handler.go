package daemon

import (
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/zync-tools/zyncmon/internal/daemon"
	"go.uber.org/zap"
)

type Handler struct {
	supervisor *daemon.Supervisor
	commands   *daemon.Commands

	logger *zap.Logger
}

func NewHandler(supervisor *daemon.Supervisor, commands *daemon.Commands, logger *zap.Logger) handler.Handler {
	return &Handler{
		supervisor: supervisor,
		commands:   commands,

		logger: logger,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/daemon", h.get)
}

func (h *Handler) get(c *fiber.Ctx) error {
	state := h.supervisor.State()

	resp := StateResponse{
		Enabled:  state.Enabled,
		Running:  state.Running,
		PID:      state.PID,
		Restarts: state.Restarts,
		LastExit: state.LastExit,
	}
	if !state.StartedAt.IsZero() {
		resp.StartedAt = &state.StartedAt
	}

	if cur, ok := h.commands.Current(); ok {
		resp.Command = &CommandResponse{
			ID:         cur.ID,
			Action:     string(cur.Action),
			Repository: cur.Repository,
			Machine:    cur.Machine,
			StartedAt:  cur.StartedAt,
		}
	}

	return c.JSON(resp)
}
