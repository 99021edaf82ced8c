// Package api defines the shared vocabulary of the datenblick gateway:
// dataset handles, execution artifacts, artifact categories, turn results,
// and the structured error taxonomy used across package boundaries.
//
// The types here are wire types: they marshal to the JSON surface exposed
// by the transport layer and returned by the sandbox service.
package api
