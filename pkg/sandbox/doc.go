// Package sandbox provides a client for the remote sandboxed interpreter
// service that executes generated Python code.
//
// A Session is a scoped resource: one session is created per analysis turn,
// carries the turn's staged dataset in its filesystem, and is torn down
// unconditionally when the turn ends. Sessions are never shared between
// concurrent turns.
//
// Session acquisition is abstracted behind Acquirer. The static acquirer
// opens sessions against a fixed service URL; the kubernetes subpackage
// provisions per-turn sandbox pods through SandboxClaim CRDs.
package sandbox
