package worker

import (
	"github.com/helpdesk-io/helpdesk/internal/service"
)

// StartNotificationWorker subscribes the notification fan-out to ticket events.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
