package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindSelfDeletionForbidden: http.StatusBadRequest,
	service.KindInvalidTransferee:     http.StatusBadRequest,
	service.KindMissingField:          http.StatusBadRequest,
	service.KindMalformedField:        http.StatusBadRequest,
	service.KindInsufficientPrivilege: http.StatusForbidden,
	service.KindUserNotFound:          http.StatusNotFound,
}

// writeServiceError maps a service error onto a status code. Errors outside
// the taxonomy never leak their message.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := service.KindOf(err)
	status, ok := kindStatus[kind]
	if !ok {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}
	httpx.WriteError(w, status, string(kind), err.Error())
}
