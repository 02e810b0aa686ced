package cli

import (
	"github.com/stxkxs/strata/internal/config"
	"github.com/stxkxs/strata/internal/event"
	"github.com/stxkxs/strata/internal/telemetry"
)

// buildEventBus constructs an event.Bus from cfg.Hooks, registering one
// hook per configured entry. logger backs both the bus's own warning
// channel and any configured log hooks.
func buildEventBus(cfg *config.Config, logger *telemetry.Logger) *event.Bus {
	bus := event.NewBus(logger)
	if !cfg.Hooks.Enabled {
		return bus
	}

	for _, h := range cfg.Hooks.Hooks {
		events := parseEventTypes(h.Events)
		switch h.Type {
		case "shell":
			bus.Register(event.NewShellHook(h.Name, h.Command, events, h.Blocking))
		case "webhook":
			bus.Register(event.NewWebhookHook(h.Name, h.URL, events, h.Blocking))
		case "log":
			bus.Register(event.NewLogHook(h.Name, events, logger, h.Level))
		case "pause":
			bus.Register(event.NewPauseHook(h.Name, events, h.Message))
		}
	}

	return bus
}

func parseEventTypes(names []string) []event.EventType {
	out := make([]event.EventType, 0, len(names))
	for _, n := range names {
		out = append(out, event.EventType(n))
	}
	return out
}
