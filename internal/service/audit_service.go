package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/abhidhakal/HReady-WebApp-sub001/internal/events"
)

// AuditService writes an audit trail of session lifecycle events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() error {
	if a.dispatcher == nil {
		return nil
	}
	handlers := map[events.EventType]events.EventHandler{
		events.EventLoggedIn:         a.handleLoggedIn,
		events.EventLoggedOut:        a.handleLoggedOut,
		events.EventSessionExpired:   a.handleDiscarded,
		events.EventSessionCorrupted: a.handleDiscarded,
		events.EventForcedLogout:     a.handleForcedLogout,
	}
	for eventType, handler := range handlers {
		if err := a.dispatcher.Subscribe(eventType, handler); err != nil {
			return err
		}
	}
	return nil
}

func (a *AuditService) handleLoggedIn(_ context.Context, event events.Event) error {
	a.logger.Info("LoggedIn", fields(event)...)
	return nil
}

func (a *AuditService) handleLoggedOut(_ context.Context, event events.Event) error {
	if event.Reason != "" {
		a.logger.Warn("LoggedOut", fields(event)...)
		return nil
	}
	a.logger.Info("LoggedOut", fields(event)...)
	return nil
}

func (a *AuditService) handleDiscarded(_ context.Context, event events.Event) error {
	a.logger.Info("SessionDiscarded", fields(event)...)
	return nil
}

func (a *AuditService) handleForcedLogout(_ context.Context, event events.Event) error {
	a.logger.Warn("ForcedLogout", fields(event)...)
	return nil
}

func fields(event events.Event) []zap.Field {
	out := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("at", event.Timestamp),
	}
	if event.SubjectID != "" {
		out = append(out, zap.String("subject_id", event.SubjectID))
	}
	if event.Role != "" {
		out = append(out, zap.String("role", string(event.Role)))
	}
	if event.Reason != "" {
		out = append(out, zap.String("reason", event.Reason))
	}
	return out
}
