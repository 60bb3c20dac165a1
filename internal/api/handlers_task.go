/**
 * @description
 * This file contains the HTTP entry point the queue backend invokes to
 * process a scheduled notification task. It mirrors the AMQP worker: a body
 * that fails validation is a client error the backend must not retry, while
 * a delivery failure at the messaging channel is a server error the backend
 * retries under its own backoff policy.
 */

package api

import (
	"io"
	"log"
	"net/http"

	"github.com/salespulse/commission-service/internal/app"
	"github.com/salespulse/commission-service/internal/domain"
)

// TaskHandlers holds the queue worker the task endpoint drives.
type TaskHandlers struct {
	worker *app.NotificationConsumer
}

// NewTaskHandlers creates a new instance of TaskHandlers.
func NewTaskHandlers(worker *app.NotificationConsumer) *TaskHandlers {
	return &TaskHandlers{worker: worker}
}

// ProcessNotificationTaskHandler handles queued notification tasks.
// POST /tasks/notification
// Body: JSON or base64-encoded JSON: { type, user_id, ...type-specific fields }
func (h *TaskHandlers) ProcessNotificationTaskHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed; use POST")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "cannot read request body")
		return
	}

	task, err := domain.ParseNotificationTask(body)
	if err != nil {
		log.Printf("level=error component=task_endpoint msg=\"rejecting malformed task\" err=%v", err)
		writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	log.Printf("level=info component=task_endpoint msg=\"processing queued task\" type=%s user_id=%s", task.Type, task.UserID)

	if err := h.worker.Process(r.Context(), task); err != nil {
		if app.IsTaskClientError(err) {
			writeError(w, http.StatusBadRequest, "ValidationError", err.Error())
			return
		}
		log.Printf("level=error component=task_endpoint msg=\"task processing failed\" type=%s user_id=%s err=%v", task.Type, task.UserID, err)
		writeError(w, http.StatusInternalServerError, "InternalServerError", "failed to process notification task")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "notification processed",
	})
}
