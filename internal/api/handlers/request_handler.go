package handlers

import (
	"context"
	"net/http"

	"github.com/IlyaKonFetka/max-social-miniapp/internal/application/services"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/entities"
	"github.com/IlyaKonFetka/max-social-miniapp/internal/domain/repositories"
)

// RequestService defines the request lifecycle operations used by the handler.
type RequestService interface {
	CreateRequest(ctx context.Context, input services.CreateRequestInput) (*entities.Request, error)
	GetRequest(ctx context.Context, id string) (*entities.Request, error)
	ListRequests(ctx context.Context, filter repositories.RequestFilter) ([]*entities.Request, error)
	ListPendingRequests(ctx context.Context, limit, offset int) ([]*entities.Request, error)
	UpdateRequest(ctx context.Context, id string, patch entities.RequestPatch) (*entities.Request, error)
	AcceptRequest(ctx context.Context, id string, volunteerID int64) (*entities.Request, error)
	CompleteRequest(ctx context.Context, id string, rating *int, comment string) (*entities.Request, error)
	CancelRequest(ctx context.Context, id string) (*entities.Request, error)
}

// RequestHandler handles help request HTTP requests
type RequestHandler struct {
	service RequestService
}

// NewRequestHandler creates a new request handler
func NewRequestHandler(service RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

type acceptRequestBody struct {
	VolunteerID int64 `json:"volunteer_id"`
}

type completeRequestBody struct {
	Rating  *int   `json:"rating"`
	Comment string `json:"comment"`
}

// CreateRequest handles POST /api/requests
func (h *RequestHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var input services.CreateRequestInput
	if err := decodeJSON(r, &input); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	request, err := h.service.CreateRequest(r.Context(), input)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, request)
}

// GetRequest handles GET /api/requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.service.GetRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

// ListRequests handles GET /api/requests
func (h *RequestHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	userID, err := queryInt64Ptr(r, "user_id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}
	volunteerID, err := queryInt64Ptr(r, "volunteer_id")
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	requests, err := h.service.ListRequests(r.Context(), repositories.RequestFilter{
		UserID:      userID,
		VolunteerID: volunteerID,
		Status:      entities.RequestStatus(r.URL.Query().Get("status")),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithRequests(w, requests)
}

// ListPendingRequests handles GET /api/requests/pending
func (h *RequestHandler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := queryPage(r)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	requests, err := h.service.ListPendingRequests(r.Context(), limit, offset)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithRequests(w, requests)
}

// UpdateRequest handles PUT /api/requests/{id}
func (h *RequestHandler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	var patch entities.RequestPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	request, err := h.service.UpdateRequest(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

// AcceptRequest handles POST /api/requests/{id}/accept
func (h *RequestHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	var body acceptRequestBody
	if err := decodeJSON(r, &body); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	request, err := h.service.AcceptRequest(r.Context(), r.PathValue("id"), body.VolunteerID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

// CompleteRequest handles POST /api/requests/{id}/complete. The body is optional.
func (h *RequestHandler) CompleteRequest(w http.ResponseWriter, r *http.Request) {
	var body completeRequestBody
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			respondWithServiceError(w, r, err)
			return
		}
	}

	request, err := h.service.CompleteRequest(r.Context(), r.PathValue("id"), body.Rating, body.Comment)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

// CancelRequest handles POST /api/requests/{id}/cancel
func (h *RequestHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.service.CancelRequest(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, request)
}

func respondWithRequests(w http.ResponseWriter, requests []*entities.Request) {
	if requests == nil {
		requests = []*entities.Request{}
	}
	respondWithJSON(w, http.StatusOK, requests)
}
