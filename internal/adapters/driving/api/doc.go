// Package api provides the HTTP API adapter. It exposes ingestion,
// retrieval and chat over JSON using gin.
package api
