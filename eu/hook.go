package eu

import "log"

// HookPos marks a position in the unit's control flow where hooks fire.
type HookPos struct {
	Name string
}

// Hook positions invoked by the Unit.
var (
	HookPosWaitBegin = &HookPos{Name: "WaitBegin"}
	HookPosWaitEnd   = &HookPos{Name: "WaitEnd"}
	HookPosSuspend   = &HookPos{Name: "Suspend"}
	HookPosClear     = &HookPos{Name: "Clear"}
)

// HookCtx carries the information about the site that triggered a hook.
type HookCtx struct {
	Domain any
	Pos    *HookPos
	Mask   uint32
	Detail uint32
}

// A Hook is a short piece of program invoked by a hookable object.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable defines an object that accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// HookableBase provides the hook bookkeeping for types that implement
// Hookable.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}

// ActivityLogger is a hook that writes the unit's wait and clear
// activity to a logger.
type ActivityLogger struct {
	Logger *log.Logger
}

// NewActivityLogger returns a hook that logs to logger.
func NewActivityLogger(logger *log.Logger) *ActivityLogger {
	return &ActivityLogger{Logger: logger}
}

// Func writes one line per hook invocation.
func (l *ActivityLogger) Func(ctx HookCtx) {
	l.Logger.Printf("%s, mask 0x%08x, detected 0x%08x",
		ctx.Pos.Name, ctx.Mask, ctx.Detail)
}
