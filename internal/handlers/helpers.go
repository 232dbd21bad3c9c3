package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Tredoux555/jeffy-delivery/internal/services"
	"github.com/Tredoux555/jeffy-delivery/pkg/utils"
)

// respondServiceError maps state-machine errors to HTTP responses. Conflict
// errors carry their specific reason string so the app can show an actionable
// message.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrAssignmentNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, services.ErrOrderNotReady),
		errors.Is(err, services.ErrOrderCancelled),
		errors.Is(err, services.ErrOrderAlreadyDelivered),
		errors.Is(err, services.ErrOrderInvalidStatus),
		errors.Is(err, services.ErrAssignedToOtherDriver),
		errors.Is(err, services.ErrAlreadyAccepted),
		errors.Is(err, services.ErrAlreadyProcessed),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrInvalidProofToken):
		utils.RespondError(w, http.StatusConflict, err.Error())

	default:
		log.Printf("❌ Unexpected error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}
