// Package transport exposes the analysis engine over HTTP.
//
// Endpoints:
//
//	POST /v1/analyze  - multipart upload (dataset, query, optional model), runs one turn
//	POST /v1/preview  - multipart upload (dataset), returns header and first rows
//	GET  /v1/models   - proxies the completion backend's model list
//	GET  /healthz     - liveness probe
//
// The package also provides HTTP middleware (recovery, request ID, logging)
// and a Server wrapper with graceful shutdown.
package transport
