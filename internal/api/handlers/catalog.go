package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nikhilbhutani/clinicstaff/internal/permission"
)

type CatalogHandler struct {
	resolver *permission.Resolver
}

func NewCatalogHandler(resolver *permission.Resolver) *CatalogHandler {
	return &CatalogHandler{resolver: resolver}
}

func (h *CatalogHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": h.resolver.Catalog().Categories(),
		"roles":      permission.Roles,
		"levels":     []permission.Level{permission.LevelView, permission.LevelEdit, permission.LevelFull},
		"mode":       h.resolver.Mode(),
	})
}

func (h *CatalogHandler) RoleDefaults(w http.ResponseWriter, r *http.Request) {
	role, err := permission.ParseRole(chi.URLParam(r, "role"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	levels, err := h.resolver.Matrix().Defaults(role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"role": role, "levels": levels})
}
