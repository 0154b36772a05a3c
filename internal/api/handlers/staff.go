package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/clinicstaff/internal/directory"
	"github.com/nikhilbhutani/clinicstaff/internal/staff"
	"github.com/nikhilbhutani/clinicstaff/internal/tenant"
)

type StaffHandler struct {
	svc *staff.Service
}

func NewStaffHandler(svc *staff.Service) *StaffHandler {
	return &StaffHandler{svc: svc}
}

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.List(r.Context(), directory.Filter{
		TenantID: tenant.IDFromContext(r.Context()),
		Role:     r.URL.Query().Get("role"),
		Status:   r.URL.Query().Get("status"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"staff":    res.Users,
		"count":    len(res.Users),
		"degraded": res.Degraded,
	})
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in staff.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.Create(r.Context(), tenant.IDFromContext(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"staff": u})
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid staff ID")
		return
	}

	u, err := h.svc.Get(r.Context(), tenant.IDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"staff": u})
}

func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid staff ID")
		return
	}

	var in staff.UpdateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.svc.Update(r.Context(), tenant.IDFromContext(r.Context()), id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"staff": u})
}

func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid staff ID")
		return
	}

	if err := h.svc.Delete(r.Context(), tenant.IDFromContext(r.Context()), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *StaffHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid staff ID")
		return
	}

	eff, err := h.svc.Effective(r.Context(), tenant.IDFromContext(r.Context()), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eff)
}

type changePermissionsRequest struct {
	Changes []staff.Change `json:"changes"`
}

func (h *StaffHandler) ChangePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid staff ID")
		return
	}

	var req changePermissionsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Changes) == 0 {
		writeError(w, http.StatusBadRequest, "changes required")
		return
	}

	eff, err := h.svc.ApplyChanges(r.Context(), tenant.IDFromContext(r.Context()), id, req.Changes)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eff)
}
