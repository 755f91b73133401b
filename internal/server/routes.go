package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Document processing
	mux.HandleFunc("/api/ocr", s.app.OCRHandler.ProcessHandler) // POST - run the full pipeline

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.StatusHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)

	// Everything else is a JSON 404
	mux.HandleFunc("/", s.app.StatusHandler.NotFoundHandler)

	return mux
}
