package handler

import (
	"net/http"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// System endpoints
	mux.HandleFunc("/health", h.HandleHealthCheck)

	// API endpoints
	mux.HandleFunc("/api/mkdir", h.HandleMkdir)
	mux.HandleFunc("/api/touch", h.HandleTouch)
	mux.HandleFunc("/api/write", h.HandleWrite)
	mux.HandleFunc("/api/read", h.HandleRead)
	mux.HandleFunc("/api/ls", h.HandleLs)
	mux.HandleFunc("/api/rm", h.HandleRm)
	mux.HandleFunc("/api/stat", h.HandleStat)
	mux.HandleFunc("/api/save", h.HandleSave)
}
