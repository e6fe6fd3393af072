package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	// Board lifecycle
	AuditActionMount      AuditAction = "BOARD_MOUNT"
	AuditActionUnmount    AuditAction = "BOARD_UNMOUNT"
	AuditActionLoad       AuditAction = "BOARD_LOAD"
	AuditActionLoadFailed AuditAction = "BOARD_LOAD_FAILED"
	AuditActionRefresh    AuditAction = "BOARD_REFRESH"

	// Export
	AuditActionExport AuditAction = "DELIVERIES_EXPORT"

	// WebSocket operations
	AuditActionWSConnect    AuditAction = "WS_CONNECT"
	AuditActionWSDisconnect AuditAction = "WS_DISCONNECT"
)

// AuditEvent represents an audit log entry
type AuditEvent struct {
	Action      AuditAction
	Resource    string
	ResourceID  string
	Details     map[string]interface{}
	ClientIP    string
	RequestID   string
	OperationID string
	Success     bool
	Error       string
	Duration    int64 // ms
}

var auditLogger = zerolog.Nop()

// InitAudit initializes the audit logger
func InitAudit() {
	auditLogger = globalLogger.With().Str("log_type", "audit").Logger()
}

// Audit logs an audit event
func Audit(ctx context.Context, event AuditEvent) {
	if event.RequestID == "" {
		event.RequestID = GetRequestID(ctx)
	}
	if event.OperationID == "" {
		event.OperationID = GetOperationID(ctx)
	}

	logEvent := auditLogger.Info()
	if !event.Success {
		logEvent = auditLogger.Warn()
	}

	logEvent.
		Str("action", string(event.Action)).
		Str("resource", event.Resource).
		Bool("success", event.Success).
		Time("timestamp", time.Now().UTC())

	if event.ResourceID != "" {
		logEvent.Str("resource_id", event.ResourceID)
	}
	if event.ClientIP != "" {
		logEvent.Str("client_ip", event.ClientIP)
	}
	if event.RequestID != "" {
		logEvent.Str("request_id", event.RequestID)
	}
	if event.OperationID != "" {
		logEvent.Str("operation_id", event.OperationID)
	}
	if event.Error != "" {
		logEvent.Str("error", event.Error)
	}
	if event.Duration > 0 {
		logEvent.Int64("duration_ms", event.Duration)
	}
	if len(event.Details) > 0 {
		logEvent.Interface("details", event.Details)
	}

	logEvent.Msg("Audit event")
}

// AuditBoard logs a board lifecycle event
func AuditBoard(ctx context.Context, action AuditAction, success bool, details map[string]interface{}) {
	Audit(ctx, AuditEvent{
		Action:   action,
		Resource: "board",
		Success:  success,
		Details:  details,
	})
}

// AuditWebSocket logs WebSocket connection events
func AuditWebSocket(ctx context.Context, action AuditAction, clientID, clientIP string) {
	Audit(ctx, AuditEvent{
		Action:     action,
		Resource:   "websocket",
		ResourceID: clientID,
		ClientIP:   clientIP,
		Success:    true,
	})
}
