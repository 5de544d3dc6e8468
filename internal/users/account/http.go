// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/userdir/internal/platform/request"
	"github.com/taibuivan/userdir/internal/platform/respond"
)

// Handler implements the HTTP layer for user records.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] with the user endpoints, mounted under
// /api/v1/users.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Collection
	router.Get("/", handler.list)
	router.Post("/", handler.create)

	// Analytics
	router.Get("/average-age", handler.averageAge)
	router.Get("/average-age-by-city", handler.averageAge)
	router.Get("/demographics", handler.demographics)

	// Single record
	router.Get("/{id}", handler.get)
	router.Put("/{id}", handler.update)
	router.Patch("/{id}", handler.update)
	router.Delete("/{id}", handler.delete)

	return router
}

// # Collection Endpoints

/*
GET /api/v1/users.

Request:
  - query: page, limit, sortBy, order, search, occupation, city

Response:
  - 200: UserPage: The requested page
  - 400: Malformed query parameter
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params, err := ParseListParams(request.URL.Query())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.accountService.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, page, "Users fetched successfully")
}

/*
POST /api/v1/users.

Request:
  - body: CreateInput

Response:
  - 201: User: The created record
  - 409: Email already registered
  - 422: Validation failures
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user, "User created successfully")
}

// # Analytics Endpoints

/*
GET /api/v1/users/average-age.

Request:
  - query: occupation, city (both optional)

Response:
  - 200: number: Mean age, 0 when nothing matches
*/
func (handler *Handler) averageAge(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()

	average, message, err := handler.accountService.AverageAge(request.Context(), FilterParams{
		Occupation: query.Get(FieldOccupation),
		City:       query.Get(FieldCity),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, average, message)
}

// GET /api/v1/users/demographics.
func (handler *Handler) demographics(writer http.ResponseWriter, request *http.Request) {
	report, err := handler.accountService.Demographics(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, report, "User demographics fetched successfully")
}

// # Single Record Endpoints

/*
GET /api/v1/users/{id}.

Response:
  - 200: User
  - 400: Malformed id
  - 404: No such user
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, FieldID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "User fetched successfully")
}

/*
PUT|PATCH /api/v1/users/{id}.

Description: Both verbs apply a partial update.

Request:
  - body: UpdateInput (every field optional)

Response:
  - 200: User: The updated record
  - 404: No such user
  - 409: Email already registered
  - 422: Validation failures
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, FieldID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Update(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user, "User updated successfully")
}

// DELETE /api/v1/users/{id}.
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.ID(request, FieldID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, nil, "User deleted successfully")
}
