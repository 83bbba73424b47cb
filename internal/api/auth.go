package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"inventory/m/domain"
)

// Authentication helpers

func (h *Handler) generateToken(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(now.Add(h.opts.TokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.opts.Secret))
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, http.StatusUnauthorized, "No se pudo validar las credenciales")
			return
		}
		tokenString := strings.TrimSpace(header[len("Bearer "):])
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(h.opts.Secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, http.StatusUnauthorized, "No se pudo validar las credenciales")
			return
		}

		user, err := h.store.Q().GetUserByUsername(r.Context(), claims.Subject)
		if errors.Is(err, domain.ErrNotFound) {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondError(w, http.StatusUnauthorized, "No se pudo validar las credenciales")
			return
		}
		if err != nil {
			respondDomainError(w, r, err, "Error al validar credenciales")
			return
		}
		if !user.IsActive {
			respondError(w, http.StatusBadRequest, "Usuario inactivo")
			return
		}

		ctx := contextWithPrincipal(r.Context(), user.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Auth Handlers

type registerRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

func (req *registerRequest) validate() error {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if n := len(req.Username); n < 3 || n > 50 {
		return domain.Invalidf("el usuario debe tener entre 3 y 50 caracteres")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || strings.ContainsAny(req.Email, "<> ") {
		return domain.Invalidf("el email '%s' no es válido", req.Email)
	}
	// bcrypt only looks at the first 72 bytes.
	if n := len(req.Password); n < 8 || n > 72 {
		return domain.Invalidf("la contraseña debe tener entre 8 y 72 caracteres")
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if len(name) > 100 {
			return domain.Invalidf("el nombre completo no puede superar 100 caracteres")
		}
		if name == "" {
			req.FullName = nil
		} else {
			req.FullName = &name
		}
	}
	return nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	q := h.store.Q()
	if taken, err := q.UsernameTaken(ctx, req.Username); err != nil || taken {
		if err == nil {
			err = domain.Duplicatef("El usuario '%s' ya existe", req.Username)
		}
		respondDomainError(w, r, err, "Error interno al crear usuario")
		return
	}
	if taken, err := q.EmailTaken(ctx, req.Email); err != nil || taken {
		if err == nil {
			err = domain.Duplicatef("El email '%s' ya está registrado", req.Email)
		}
		respondDomainError(w, r, err, "Error interno al crear usuario")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al procesar contraseña")
		return
	}
	user, err := q.CreateUser(ctx, req.Username, req.Email, req.FullName, string(hashed))
	if err != nil {
		respondDomainError(w, r, err, "Error interno al crear usuario")
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.Q().GetUserByUsername(r.Context(), req.Username)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		respondDomainError(w, r, err, "Error interno al procesar login")
		return
	}
	if err != nil || !user.IsActive || bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)) != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		respondError(w, http.StatusUnauthorized, "Usuario o contraseña incorrectos")
		return
	}

	token, err := h.generateToken(user.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Error al generar token de autenticación")
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	p, _ := principal(r.Context())
	user, err := h.store.Q().GetUserByUsername(r.Context(), p.Username)
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener información del usuario")
		return
	}
	respondJSON(w, http.StatusOK, user)
}
