package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"svodka.org/internal/audit"
	"svodka.org/internal/auth"
)

type createUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
	Patronymic string `json:"patronymic"`
	Admin      bool   `json:"admin"`
}

type updateUserRequest struct {
	Username    *string   `json:"username"`
	FamilyName  *string   `json:"family_name"`
	GivenName   *string   `json:"given_name"`
	Patronymic  *string   `json:"patronymic"`
	Password    *string   `json:"password"`
	Permissions *[]string `json:"permissions"`
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listUsers(w, r)
	case http.MethodPost:
		a.createUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		a.getUser(w, r, id)
	case http.MethodPut:
		a.updateUser(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
	}
}

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	users, err := a.users.ListUsers(r.Context(), p)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	if users == nil {
		users = []*auth.User{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) createUser(w http.ResponseWriter, r *http.Request) {
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.users.CreateUser(r.Context(), p, auth.NewUserInput{
		Username:   req.Username,
		Password:   req.Password,
		FamilyName: req.FamilyName,
		GivenName:  req.GivenName,
		Patronymic: req.Patronymic,
		Admin:      req.Admin,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.create", map[string]any{
		"created_id": user.ID,
		"username":   user.Username,
		"admin":      req.Admin,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/users/%s", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	user, err := a.users.GetUser(r.Context(), p, id)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) updateUser(w http.ResponseWriter, r *http.Request, id string) {
	p, ok := a.principal(w, r)
	if !ok {
		return
	}
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in := auth.UpdateUserInput{
		Username:   req.Username,
		FamilyName: req.FamilyName,
		GivenName:  req.GivenName,
		Patronymic: req.Patronymic,
		Password:   req.Password,
	}
	if req.Permissions != nil {
		perms := make([]auth.Permission, 0, len(*req.Permissions))
		for _, raw := range *req.Permissions {
			perms = append(perms, auth.Permission(raw))
		}
		in.Permissions = &perms
	}
	user, err := a.users.UpdateUser(r.Context(), p, id, in)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	fields := map[string]any{"updated_id": user.ID}
	if req.Permissions != nil {
		fields["permissions"] = user.Permissions.Strings()
	}
	_ = audit.LogEvent(r.Context(), "user.update", fields)
	writeJSON(w, http.StatusOK, user)
}
