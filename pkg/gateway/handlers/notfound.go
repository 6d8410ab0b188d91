package handlers

import (
	"net/http"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/apierror"
)

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeError(w, r, apierror.CodeNotFound, "not found")
}
