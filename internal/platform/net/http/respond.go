// Package http provides helpers for writing responses with byte-exact bodies.
// Endpoints here have fixed wire contracts (bare JSON scalars, MessagePack
// lists), so there is no response envelope.
package http

import (
	"encoding/json"
	stdhttp "net/http"

	"lineview/internal/platform/logger"

	"github.com/vmihailenco/msgpack/v5"
)

const internalErrorBody = "internal server error"

// JSON writes v as application/json with the given status. Marshalling
// happens before any byte is written so an encode failure can still map to
// the fixed 500 body.
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		InternalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		logger.Get().Error().Err(err).Msg("response writing")
	}
}

// MsgPack writes v as application/msgpack with a 200 status
func MsgPack(w stdhttp.ResponseWriter, v any) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		InternalError(w)
		return
	}
	w.Header().Set("Content-Type", "application/msgpack")
	w.WriteHeader(stdhttp.StatusOK)
	if _, err := w.Write(b); err != nil {
		logger.Get().Error().Err(err).Msg("response writing")
	}
}

// Text writes msg as text/plain with the given status
func Text(w stdhttp.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}

// BadRequest writes a 400 with the given message
func BadRequest(w stdhttp.ResponseWriter, msg string) {
	Text(w, stdhttp.StatusBadRequest, msg)
}

// InternalError writes the fixed 500 body
func InternalError(w stdhttp.ResponseWriter) {
	Text(w, stdhttp.StatusInternalServerError, internalErrorBody)
}
