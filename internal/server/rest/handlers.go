package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/vitae/internal/common"
	"github.com/dmitrijs2005/vitae/internal/logging"
	"github.com/dmitrijs2005/vitae/internal/server/services"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	accounts Accounts
	logger   logging.Logger
}

func NewHandler(accounts Accounts, logger logging.Logger) *Handler {
	return &Handler{accounts: accounts, logger: logger}
}

type registerRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

// Validate checks shape only; password equality is the engine's call so it
// can report email availability first.
func (r registerRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 72)),
		validation.Field(&r.PasswordConfirmation, validation.Required),
	)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (s *Handler) decode(w http.ResponseWriter, r *http.Request, dst validation.Validatable) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", common.ErrValidation, err)
	}
	return dst.Validate()
}

// Register handles POST /users. Activation is started in the background and
// does not affect the response.
func (s *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	user, err := s.accounts.RegisterUser(r.Context(), services.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.accounts.StartActivation(r.Context(), user)

	s.respondJSON(w, r, newUserResponse(user), http.StatusCreated)
}

// Activate handles GET /users/activation?token=.
func (s *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.respondError(w, r, validation.Errors{"token": errors.New("cannot be blank")})
		return
	}

	if err := s.accounts.ActivateUser(r.Context(), token); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, messageResponse{Message: "user activated"}, http.StatusOK)
}

// Login handles POST /users/login.
func (s *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	token, err := s.accounts.GetAuthorizationToken(r.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.respondJSON(w, r, tokenResponse{Token: token}, http.StatusCreated)
}

// ResendActivation handles POST /users/{id}/activation.
func (s *Handler) ResendActivation(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.ResendActivation(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, r, messageResponse{Message: "activation email sent"}, http.StatusAccepted)
}

// Me handles GET /users/me.
func (s *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		s.respondError(w, r, common.ErrInvalidToken)
		return
	}
	s.respondJSON(w, r, newUserResponse(user), http.StatusOK)
}

func (s *Handler) Health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}
