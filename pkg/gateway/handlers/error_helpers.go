package handlers

import (
	"net/http"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/apierror"
	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/mw"
)

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	apierror.Write(w, apierror.StatusFor(code), &apierror.Error{
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}
