// Package errors provides structured, coded errors for the reactor runtime
// and its tooling.
//
// Every error carries a short code (e.g. "R001") that maps to a registered
// template holding a category, a one-line message and a longer explanation.
// Codes are stable and are what callers match on: errors.Is compares two
// *Error values by code, so sentinel values exported by other packages keep
// working after a call site attaches detail or wraps a cause.
//
// # Categories
//
//   - runtime: misuse of the reactive engine (readonly writes, recursion)
//   - config: configuration files that cannot be read or validated
//   - transport: state hub request and connection failures
//   - cli: command line usage errors
//
// # Usage
//
//	err := errors.New(errors.CodeReadonlyWrite).
//	    WithDetail(`field "count" is readonly`).
//	    WithSuggestion("Write through a view created with Engine.Reactive")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR R001: Write to readonly target
//	//
//	//   field "count" is readonly
//	//
//	//   Hint: Write through a view created with Engine.Reactive
package errors
