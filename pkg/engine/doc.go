// Package engine orchestrates one analysis turn end to end: stage the
// dataset into a sandbox session, ask the completion backend for analysis
// code, extract the code block from the reply, execute it in the sandbox,
// and classify the resulting artifacts.
//
// A turn is strictly sequential and turn-local: no state survives from one
// turn to the next, and every turn runs against its own sandbox session.
package engine
