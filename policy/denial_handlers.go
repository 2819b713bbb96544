package policy

import "log/slog"

// Ensure implementations satisfy the interface.
var (
	_ DenialHandler = (*LogDenialHandler)(nil)
	_ DenialHandler = (*NopDenialHandler)(nil)
)

// LogDenialHandler logs denials with a structured logger.
type LogDenialHandler struct {
	Logger *slog.Logger
}

func (h *LogDenialHandler) OnDenial(consumer, capability, reason string) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("binding denied", "consumer", consumer, "capability", capability, "reason", reason)
}

// NopDenialHandler does nothing.
type NopDenialHandler struct{}

func (h *NopDenialHandler) OnDenial(consumer, capability, reason string) {}
