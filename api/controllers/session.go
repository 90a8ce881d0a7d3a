package controllers

import (
	"net/http"

	"github.com/angelmondragon/storepos-backend/api/middleware"
	"github.com/angelmondragon/storepos-backend/api/responses"
	"github.com/angelmondragon/storepos-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storepos-backend/pkg/errors"
	"github.com/angelmondragon/storepos-backend/pkg/logger"
)

// requireViewer returns the authenticated session or writes a 401.
func requireViewer(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (catalog.Viewer, bool) {
	viewer, ok := middleware.ViewerFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return catalog.Viewer{}, false
	}
	return viewer, true
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
