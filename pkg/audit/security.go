package audit

import (
	"time"

	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and
// alerting.
type SecurityEventType string

const (
	// EventSQLInjectionAttempt is logged when injection screening flags an
	// inbound question.
	EventSQLInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventGuardRejection is logged when the guard rejects generated SQL.
	EventGuardRejection SecurityEventType = "guard_rejection"
)

// SecurityAuditor logs security events in structured JSON for SIEM
// consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a security auditor with a dedicated logger
// namespace for easy filtering.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionAttempt records a question flagged by injection screening.
// Logged at ERROR with critical severity for immediate alerting.
func (a *SecurityAuditor) LogInjectionAttempt(userID int64, fingerprint, questionPreview string) {
	a.logger.Error("SQL injection attempt detected",
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("event_type", string(EventSQLInjectionAttempt)),
		zap.Int64("user_id", userID),
		zap.String("fingerprint", fingerprint),
		zap.String("question", questionPreview),
		zap.String("severity", "critical"))
}

// LogGuardRejection records a rejected candidate for pattern analysis.
func (a *SecurityAuditor) LogGuardRejection(userID int64, violations string) {
	a.logger.Warn("guard rejected generated SQL",
		zap.Time("timestamp", time.Now().UTC()),
		zap.String("event_type", string(EventGuardRejection)),
		zap.Int64("user_id", userID),
		zap.String("violations", violations),
		zap.String("severity", "warning"))
}
