package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/akulagin/indexfs/internal/pkg/kerrors"
	"github.com/akulagin/indexfs/internal/service"
	"github.com/akulagin/indexfs/pkg/binary"
	"github.com/akulagin/indexfs/pkg/logging"
	"github.com/akulagin/indexfs/pkg/logging/slogext"
)

type Handler struct {
	service service.FileSystemService
}

func NewHandler(service service.FileSystemService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) HandleMkdir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleMkdir"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		binary.WriteResponse(w, kerrors.EINVAL_NEG, nil)
		return
	}

	if err := h.service.Mkdir(ctx, path); err != nil {
		logger.Debug("Mkdir failed", slogext.Err(err), slog.String("path", path))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteResponse(w, 0, nil)
}

func (h *Handler) HandleTouch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleTouch"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		binary.WriteResponse(w, kerrors.EINVAL_NEG, nil)
		return
	}

	if err := h.service.Touch(ctx, path); err != nil {
		logger.Debug("Touch failed", slogext.Err(err), slog.String("path", path))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteResponse(w, 0, nil)
}

func (h *Handler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleWrite"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Info("Write request received",
		slog.String("query", r.URL.RawQuery),
		slog.String("remote_addr", r.RemoteAddr))

	if r.Method != http.MethodGet {
		logger.Warn("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	dataBase64 := r.URL.Query().Get("data")
	if path == "" {
		binary.WriteResponse(w, kerrors.EINVAL_NEG, nil)
		return
	}

	// An absent data parameter is a valid empty write.
	data, err := base64.StdEncoding.DecodeString(dataBase64)
	if err != nil {
		logger.Warn("Failed to decode base64 data", slogext.Err(err))
		binary.WriteResponse(w, kerrors.EINVAL_NEG, nil)
		return
	}

	if err := h.service.Write(ctx, path, data); err != nil {
		logger.Error("Service.Write failed", slogext.Err(err), slog.String("path", path))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteInt64Response(w, 0, int64(len(data)))
}

func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleRead"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		binary.WriteResponse(w, kerrors.EINVAL_NEG, nil)
		return
	}

	data, err := h.service.Read(ctx, path)
	if err != nil {
		logger.Debug("Read failed", slogext.Err(err), slog.String("path", path))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteResponse(w, 0, data)
}

func (h *Handler) HandleLs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleLs"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// An absent path parameter lists the root.
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	entries, err := h.service.Entries(ctx, path)
	if err != nil {
		logger.Debug("Ls failed", slogext.Err(err), slog.String("path", path))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	data, err := binary.EncodeDirents(entries)
	if err != nil {
		binary.WriteResponse(w, kerrors.ENOMEM_NEG, nil)
		return
	}

	binary.WriteResponse(w, 0, data)
}

func (h *Handler) HandleRm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleRm"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		binary.WriteResponse(w, kerrors.EINVAL_NEG, nil)
		return
	}

	if err := h.service.Remove(ctx, path); err != nil {
		logger.Debug("Rm failed", slogext.Err(err), slog.String("path", path))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteResponse(w, 0, nil)
}

func (h *Handler) HandleStat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleStat"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}

	meta, err := h.service.Stat(ctx, path)
	if err != nil {
		logger.Debug("Stat failed", slogext.Err(err), slog.String("path", path))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	data, err := binary.EncodeNodeMeta(meta)
	if err != nil {
		binary.WriteResponse(w, kerrors.ENOMEM_NEG, nil)
		return
	}

	binary.WriteResponse(w, 0, data)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleSave"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.service.Save(ctx); err != nil {
		logger.Error("Save failed", slogext.Err(err))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteResponse(w, 0, nil)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	response := `{"status":"ok","service":"indexfs-server"}`
	w.Write([]byte(response))
}

func mapErrorToCode(err error) int64 {
	if serviceErr, ok := err.(*service.ServiceError); ok {
		return -serviceErr.Code
	}
	return kerrors.ENOMEM_NEG
}
