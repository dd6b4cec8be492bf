// Package task implements the task model and its execution pipeline.
//
// A project defines named tasks in one of three shapes:
//
//   - A string: a literal shell command.
//   - A function: func(*Context) (string, error), called with the full
//     execution context; a returned non-empty string is run as a shell
//     command with the pass-through arguments appended.
//   - A struct implementing Handler: constructed fresh per invocation,
//     may declare custom flags via ArgAdder, receives the full context.
//
// # Pipeline
//
// The Registry classifies each definition once, at registration. A Proxy
// then drives one invocation: look the task up, build its flag set, parse
// argv into recognized options plus an opaque pass-through tail, resolve
// the task's settings, wire styled output proxies (honoring --stdout,
// --stderr and --no-color), and dispatch by kind.
//
// # Failure model
//
// Halt (a deliberate, user-facing task failure) is caught exactly at the
// Execute boundary of the proxy that ran the task and becomes a styled
// stderr message plus a non-zero invocation result. NotFoundError and
// DefinitionError report lookup and registration problems and are
// returnable to nested callers. Every other error is treated as a defect
// and propagates unwrapped. A subprocess exiting non-zero is never an
// error by itself: it is data in the Result.
package task
