package errors

import (
	"sort"
	"sync"
)

// Registered error codes.
const (
	CodeReadonlyWrite  = "R001"
	CodeReadonlyDelete = "R002"
	CodeInvalidSource  = "R003"
	CodeBudgetExceeded = "R004"
	CodeForeignRoutine = "R005"
	CodeRecursionDepth = "R006"
	CodeUnsupportedOp  = "R007"
	CodeLoopClosed     = "R008"
	CodeTaskPanicked   = "R009"
	CodeConfigRead     = "C001"
	CodeConfigInvalid  = "C002"
	CodeBadRequest     = "S001"
	CodeNotFound       = "S002"
	CodeUnknownDemo    = "X001"
)

// Template defines a registered error type.
type Template struct {
	Category Category
	Message  string
	Detail   string
}

var (
	registryMu sync.RWMutex

	// registry maps error codes to their templates.
	registry = map[string]Template{
		// ============================================
		// Runtime Errors (R001-R099)
		// ============================================

		CodeReadonlyWrite: {
			Category: CategoryRuntime,
			Message:  "Write to readonly target",
			Detail:   "The view was created with Readonly or ShallowReadonly; the write was suppressed.",
		},
		CodeReadonlyDelete: {
			Category: CategoryRuntime,
			Message:  "Delete on readonly target",
			Detail:   "The view was created with Readonly or ShallowReadonly; the delete was suppressed.",
		},
		CodeInvalidSource: {
			Category: CategoryRuntime,
			Message:  "Invalid watch source",
			Detail:   "Watch accepts a func() any getter, a *View or a computed value.",
		},
		CodeBudgetExceeded: {
			Category: CategoryRuntime,
			Message:  "Run budget exceeded",
			Detail:   "Too many deferred runs were requested within one tick; the remainder was dropped.",
		},
		CodeForeignRoutine: {
			Category: CategoryRuntime,
			Message:  "Engine used from a foreign goroutine",
			Detail:   "An engine is confined to one goroutine. Post work through a Loop instead.",
		},
		CodeRecursionDepth: {
			Category: CategoryRuntime,
			Message:  "Effect recursion too deep",
			Detail:   "Effects kept re-triggering each other synchronously. Check for effects that write what another effect reads and vice versa.",
		},
		CodeUnsupportedOp: {
			Category: CategoryRuntime,
			Message:  "Operation not supported by target",
		},
		CodeLoopClosed: {
			Category: CategoryRuntime,
			Message:  "Loop closed",
			Detail:   "The loop no longer accepts tasks.",
		},
		CodeTaskPanicked: {
			Category: CategoryRuntime,
			Message:  "Loop task panicked",
		},

		// ============================================
		// Config Errors (C001-C099)
		// ============================================

		CodeConfigRead: {
			Category: CategoryConfig,
			Message:  "Cannot read configuration",
		},
		CodeConfigInvalid: {
			Category: CategoryConfig,
			Message:  "Invalid configuration",
		},

		// ============================================
		// Transport Errors (S001-S099)
		// ============================================

		CodeBadRequest: {
			Category: CategoryTransport,
			Message:  "Bad request",
		},
		CodeNotFound: {
			Category: CategoryTransport,
			Message:  "Key not found",
		},

		// ============================================
		// CLI Errors (X001-X099)
		// ============================================

		CodeUnknownDemo: {
			Category: CategoryCLI,
			Message:  "Unknown demo",
		},
	}
)

func lookup(code string) (Template, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	t, ok := registry[code]
	return t, ok
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	registryMu.RLock()
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	registryMu.RUnlock()
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	return lookup(code)
}

// Register adds a custom error template.
func Register(code string, template Template) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[code] = template
}
