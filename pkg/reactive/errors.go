package reactive

import (
	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// Sentinel errors for errors.Is. Errors returned by the engine match by code,
// so errors.Is(err, ErrReadonlyWrite) holds for any R001 error regardless of
// its detail.
var (
	ErrReadonlyWrite  = rerrors.New(rerrors.CodeReadonlyWrite)
	ErrReadonlyDelete = rerrors.New(rerrors.CodeReadonlyDelete)
	ErrInvalidSource  = rerrors.New(rerrors.CodeInvalidSource)
	ErrBudgetExceeded = rerrors.New(rerrors.CodeBudgetExceeded)
	ErrForeignRoutine = rerrors.New(rerrors.CodeForeignRoutine)
	ErrRecursionDepth = rerrors.New(rerrors.CodeRecursionDepth)
	ErrUnsupported    = rerrors.New(rerrors.CodeUnsupportedOp)
	ErrLoopClosed     = rerrors.New(rerrors.CodeLoopClosed)
	ErrTaskPanicked   = rerrors.New(rerrors.CodeTaskPanicked)
)
