package handlers

import (
	"net/http"

	"delivery-fee-service/internal/apperror"
	"delivery-fee-service/internal/logger"
)

func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, internalMessage string) {
	switch {
	case apperror.Is(err, apperror.KindValidation):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case apperror.Is(err, apperror.KindTooLarge):
		writeErrorResponse(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		if log != nil {
			log.WithError(err).Error(internalMessage)
		}
		writeErrorResponse(w, http.StatusInternalServerError, msgInternalError)
	}
}
