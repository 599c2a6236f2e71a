package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"commentfeed/internal/contextutils"
	"commentfeed/internal/models"
	"commentfeed/internal/services"

	"go.uber.org/zap"
)

// ===============================
// RESPONSE CONFIGURATION
// ===============================

// Config holds configuration for the response system.
type Config struct {
	PrettyJSON         bool
	IncludeRequestID   bool
	IncludeTimestamp   bool
	MaskInternalErrors bool
}

// DefaultConfig returns production-ready response configuration.
func DefaultConfig() *Config {
	return &Config{
		PrettyJSON:         false,
		IncludeRequestID:   true,
		IncludeTimestamp:   true,
		MaskInternalErrors: true,
	}
}

// ===============================
// RESPONSE TYPES
// ===============================

// APIResponse represents a standardized API response.
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp int64        `json:"timestamp,omitempty"`
}

// PageResponse represents one page of a cursor-paginated listing.
type PageResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data"`
	NextCursor *string     `json:"nextCursor"`
	HasMore    bool        `json:"hasMore"`
	RequestID  string      `json:"request_id,omitempty"`
	Timestamp  int64       `json:"timestamp,omitempty"`
}

// ErrorDetail represents error information in API responses.
type ErrorDetail struct {
	Type    string                `json:"type"`
	Message string                `json:"message"`
	Fields  []services.FieldError `json:"fields,omitempty"`
}

// ===============================
// RESPONSE BUILDER
// ===============================

// Builder constructs standardized responses.
type Builder struct {
	config *Config
	logger *zap.Logger
}

// NewBuilder creates a new response builder.
func NewBuilder(config *Config, logger *zap.Logger) *Builder {
	if config == nil {
		config = DefaultConfig()
	}
	return &Builder{config: config, logger: logger}
}

// Success creates a successful API response.
func (b *Builder) Success(ctx context.Context, data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: b.getRequestID(ctx),
		Timestamp: b.getTimestamp(),
	}
}

// Error creates an error response from a service error.
func (b *Builder) Error(ctx context.Context, err error) *APIResponse {
	detail := b.convertError(err)
	b.logError(ctx, err, detail)

	return &APIResponse{
		Success:   false,
		Error:     detail,
		RequestID: b.getRequestID(ctx),
		Timestamp: b.getTimestamp(),
	}
}

// ===============================
// HTTP RESPONSE WRITERS
// ===============================

// WriteJSON writes a JSON response with appropriate headers.
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, payload interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(statusCode)

	encoder := json.NewEncoder(w)
	if b.config.PrettyJSON {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(payload); err != nil {
		b.logger.Error("failed to encode JSON response",
			zap.Error(err),
			zap.String("request_id", b.getRequestID(r.Context())))
	}
}

// WriteSuccess writes a successful JSON response.
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusOK)
}

// WriteCreated writes a successful creation response.
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusCreated)
}

// WriteNoContent writes an empty success response.
func (b *Builder) WriteNoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// WritePage writes one page of a comment listing.
func (b *Builder) WritePage(w http.ResponseWriter, r *http.Request, page *models.Page) {
	resp := &PageResponse{
		Success:    true,
		Data:       page.Data,
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
		RequestID:  b.getRequestID(r.Context()),
		Timestamp:  b.getTimestamp(),
	}
	b.WriteJSON(w, r, resp, http.StatusOK)
}

// WriteError writes an error response with the status code carried by the
// service error.
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	resp := b.Error(r.Context(), err)
	b.WriteJSON(w, r, resp, statusCodeFromError(err))
}

// ===============================
// UTILITY METHODS
// ===============================

func (b *Builder) convertError(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	if serviceErr := services.GetServiceError(err); serviceErr != nil {
		detail := &ErrorDetail{
			Type:    serviceErr.Type,
			Message: serviceErr.Message,
			Fields:  serviceErr.Fields,
		}
		if b.config.MaskInternalErrors && serviceErr.Type == services.TypeInternal {
			detail.Message = "An internal error occurred"
		}
		return detail
	}

	message := err.Error()
	if b.config.MaskInternalErrors {
		message = "An unexpected error occurred"
	}
	return &ErrorDetail{Type: services.TypeInternal, Message: message}
}

func statusCodeFromError(err error) int {
	if serviceErr := services.GetServiceError(err); serviceErr != nil {
		return serviceErr.StatusCode
	}
	return http.StatusInternalServerError
}

func (b *Builder) getRequestID(ctx context.Context) string {
	if !b.config.IncludeRequestID {
		return ""
	}
	return contextutils.RequestID(ctx)
}

func (b *Builder) getTimestamp() int64 {
	if !b.config.IncludeTimestamp {
		return 0
	}
	return time.Now().Unix()
}

func (b *Builder) logError(ctx context.Context, err error, detail *ErrorDetail) {
	requestID := b.getRequestID(ctx)

	switch detail.Type {
	case services.TypeInternal:
		b.logger.Error("internal error",
			zap.String("request_id", requestID),
			zap.String("error_type", detail.Type),
			zap.Error(err))
	case services.TypeValidation:
		b.logger.Warn("request error",
			zap.String("request_id", requestID),
			zap.String("error_type", detail.Type),
			zap.String("error_message", detail.Message))
	default:
		b.logger.Info("request completed with error",
			zap.String("request_id", requestID),
			zap.String("error_type", detail.Type),
			zap.String("error_message", detail.Message))
	}
}
