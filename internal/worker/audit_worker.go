package worker

import (
	"github.com/abhidhakal/HReady-WebApp-sub001/internal/service"
)

// StartAuditWorker registers the session audit handlers.
func StartAuditWorker(auditService *service.AuditService) error {
	if auditService == nil {
		return nil
	}
	return auditService.RegisterHandlers()
}
