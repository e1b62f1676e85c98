// Package handler contains the HTTP controllers.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"qanoon-go/internal/model"
	"qanoon-go/internal/service"
	"qanoon-go/pkg/llm"
	"qanoon-go/pkg/log"
)

// ConsultHandler streams legal answers over chunked HTTP.
type ConsultHandler struct {
	chatService service.ChatService
}

// NewConsultHandler creates a new ConsultHandler.
func NewConsultHandler(chatService service.ChatService) *ConsultHandler {
	return &ConsultHandler{chatService: chatService}
}

// Consult handles POST /api/v1/consult. The answer is streamed as
// text/plain, flushed fragment by fragment. A failure of the upstream
// API before any output becomes a 502 with a user-visible message; a
// failure mid-stream can only be reported in-band.
func (h *ConsultHandler) Consult(c *gin.Context) {
	var req model.ConsultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question text is required"})
		return
	}
	log.Infof("[ConsultHandler] consult (%s): %s", req.Lang, req.Text)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	writer := &httpStreamWriter{w: c.Writer}
	err := h.chatService.StreamAnswer(c.Request.Context(), req, writer, nil)
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		// Client went away; nothing to report.
		return
	}

	log.Errorf("[ConsultHandler] streaming failed: %v", err)
	msg := userMessage(err)
	if !writer.wrote {
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
		return
	}
	// Headers are already on the wire; append the message to the stream.
	_ = writer.WriteChunk([]byte("\n" + msg))
}

// userMessage maps the external-API failure taxonomy to what the caller
// sees. Internals never leak.
func userMessage(err error) string {
	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		return "The AI service is not configured correctly. Please contact the administrator."
	case errors.Is(err, llm.ErrRateLimited):
		return "The AI service is receiving too many requests. Please try again in a moment."
	default:
		return "The AI service is temporarily unavailable. Please try again later."
	}
}

// httpStreamWriter forwards fragments to the response and flushes each
// one so the browser renders the answer as it is generated.
type httpStreamWriter struct {
	w     gin.ResponseWriter
	wrote bool
}

// WriteChunk satisfies llm.StreamWriter.
func (w *httpStreamWriter) WriteChunk(data []byte) error {
	if _, err := w.w.Write(data); err != nil {
		return err
	}
	w.wrote = true
	w.w.Flush()
	return nil
}
