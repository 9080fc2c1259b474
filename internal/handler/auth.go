package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"github.com/sakif/daily-log/internal/apperror"
	"github.com/sakif/daily-log/internal/auth"
	"github.com/sakif/daily-log/internal/service"
)

// AuthHandler manages sign-up, sign-in, sign-out, session retrieval, and
// the optional GitHub OAuth flow.
//
// The session is an HttpOnly cookie set here and read by the auth
// middleware; handlers never echo the token in a response body.
type AuthHandler struct {
	authService *service.AuthService
	github      *auth.GitHubProvider // nil when OAuth isn't configured
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil; the OAuth
// routes are only registered when it isn't.
func NewAuthHandler(authService *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		github:      github,
		logger:      logger,
	}
}

// credentials is the request body shared by sign-up and sign-in.
type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleSignUp registers a new account.
//
// HTTP: POST /api/auth/signup
// BODY: {"email": "...", "password": "..."}
//
// The registration allow-list is enforced in the service before any row
// is written; an unauthorized email gets 403 and no account.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	result, err := h.authService.SignUp(r.Context(), creds.Email, creds.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	session, err := h.authService.GetSession(r.Context(), result.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// HandleSignIn authenticates email + password.
//
// HTTP: POST /api/auth/login
//
// A failed sign-in is 401 with a message the login form shows inline;
// the form stays usable, nothing here is fatal.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, apperror.ValidationFailed("", "invalid JSON body"))
		return
	}

	result, err := h.authService.SignIn(r.Context(), creds.Email, creds.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	session, err := h.authService.GetSession(r.Context(), result.User.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleSignOut clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// Sessions are stateless JWTs, so "sign out" is purely deleting the
// cookie — there is no server-side session row to remove. The client is
// responsible for dropping its locally held log list on this transition.
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the current session: identity plus the admin flag.
//
// HTTP: GET /api/auth/me (behind RequireAuth)
//
// The admin flag is re-derived from the allow-list on every call, so the
// client can rely on it being current without a fresh login.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	session, err := h.authService.GetSession(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state value goes into a short-lived HttpOnly cookie; the
// callback verifies it to block CSRF-initiated flows.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth flow: verifies the CSRF state,
// exchanges the code for a GitHub profile, resolves it to a local account
// (allow-list gated on first sign-in), and sets the session cookie.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch or missing")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.authService.SignInGitHub(r.Context(), ghUser)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   7 * 24 * 3600, // matches the token lifetime
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
