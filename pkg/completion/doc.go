// Package completion provides an HTTP client for Chat-Completions-compatible
// LLM backends (Together AI, vLLM, OpenAI, and friends).
//
// The gateway uses single-turn, non-streaming inference only: it sends a
// system prompt plus one user message and consumes the first completion
// choice's text content. Backend HTTP and network failures are mapped to the
// api.APIError taxonomy and are fatal to the turn.
package completion
