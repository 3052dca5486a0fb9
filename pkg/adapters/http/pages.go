package http

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/cooknet/pkg/dispatch"
	"github.com/aretw0/cooknet/pkg/domain"
)

// Page sizes and form limits.
const (
	RecipeListLimit = 60
	ChatLimit       = 100
	ProfileLimit    = 50
	UsernameLimit   = 32
	TextLimit       = 500
	DefaultUsername = "webuser"
)

const errCaptcha = "captcha"

//go:embed templates/*.html
var templateFS embed.FS

var pages = map[string]*template.Template{}

func init() {
	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format("2006-01-02 15:04")
		},
		// Pages link photos through the site; stored URLs are never rendered.
		"photo": func(ref string) string {
			return domain.PhotoPath + url.PathEscape(ref)
		},
	}
	for _, name := range []string{"index", "recipes", "recipe", "chat", "user", "join"} {
		pages[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		))
	}
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.Logger.Error("Template render failed", "page", page, "err", err)
		http.Error(w, "Render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index", nil)
}

// Photo handles GET /photo/{ref}. Only photos of stored recipes are served.
func (s *Server) Photo(w http.ResponseWriter, r *http.Request) {
	ref, err := url.PathUnescape(chi.URLParam(r, "ref"))
	if err != nil || s.Photos == nil || ref == "" {
		http.NotFound(w, r)
		return
	}
	known, err := s.Repo.HasPhoto(r.Context(), ref)
	if err != nil {
		s.fail(w, "Photo", err)
		return
	}
	if !known {
		http.NotFound(w, r)
		return
	}

	body, contentType, err := s.Photos.FetchPhoto(r.Context(), ref)
	if err != nil {
		s.Logger.Warn("Photo fetch failed", "ref", ref, "err", err)
		http.Error(w, "Photo unavailable", http.StatusBadGateway)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, body); err != nil {
		s.Logger.Debug("Photo copy interrupted", "ref", ref, "err", err)
	}
}

// Recipes handles GET /recipes.
func (s *Server) Recipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.Repo.Recipes(r.Context(), RecipeListLimit)
	if err != nil {
		s.fail(w, "Recipes", err)
		return
	}
	s.render(w, http.StatusOK, "recipes", map[string]any{"Recipes": recipes})
}

// Recipe handles GET /recipe/{id}.
func (s *Server) Recipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	recipe, err := s.Repo.Recipe(r.Context(), id)
	if errors.Is(err, domain.ErrRecipeNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, "Recipe", err)
		return
	}
	s.render(w, http.StatusOK, "recipe", map[string]any{
		"Recipe": recipe,
		"Error":  formError(r),
	})
}

// Like handles POST /like/{id}.
func (s *Server) Like(w http.ResponseWriter, r *http.Request) {
	back := r.Referer()
	if back == "" {
		back = "/recipes"
	}
	if !s.allow(r) {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	id, _ := recipeID(r)
	err := s.Repo.Like(r.Context(), id)
	if errors.Is(err, domain.ErrRecipeNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.fail(w, "Like", err)
		return
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Comment handles POST /comment/{id}.
func (s *Server) Comment(w http.ResponseWriter, r *http.Request) {
	id, _ := recipeID(r)
	back := "/recipe/" + strconv.FormatInt(id, 10)
	if !s.allow(r) {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	username, text, ok := s.readForm(r)
	if !ok {
		http.Redirect(w, r, back+"?error="+errCaptcha, http.StatusSeeOther)
		return
	}
	if text != "" {
		err := s.Repo.AddComment(r.Context(), id, username, text)
		if errors.Is(err, domain.ErrRecipeNotFound) {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			s.fail(w, "Comment", err)
			return
		}
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// Chat handles GET /chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.Repo.ChatMessages(r.Context(), ChatLimit)
	if err != nil {
		s.fail(w, "Chat", err)
		return
	}
	s.render(w, http.StatusOK, "chat", map[string]any{
		"Messages": msgs,
		"Error":    formError(r),
	})
}

// PostChat handles POST /chat.
func (s *Server) PostChat(w http.ResponseWriter, r *http.Request) {
	if !s.allow(r) {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}

	username, text, ok := s.readForm(r)
	if !ok {
		http.Redirect(w, r, "/chat?error="+errCaptcha, http.StatusSeeOther)
		return
	}
	if text != "" {
		if err := s.Repo.AddChatMessage(r.Context(), username, text); err != nil {
			s.fail(w, "PostChat", err)
			return
		}
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// User handles GET /u/{username}.
func (s *Server) User(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := s.Repo.User(r.Context(), username)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		s.fail(w, "User", err)
		return
	}
	recipes, err := s.Repo.RecipesBy(r.Context(), username, ProfileLimit)
	if err != nil {
		s.fail(w, "User", err)
		return
	}
	s.render(w, http.StatusOK, "user", map[string]any{
		"Username": username,
		"User":     user,
		"Recipes":  recipes,
	})
}

// Join handles GET /join/{code}.
func (s *Server) Join(w http.ResponseWriter, r *http.Request) {
	owner, err := s.Repo.UseInvite(r.Context(), chi.URLParam(r, "code"))
	if errors.Is(err, domain.ErrInviteNotFound) {
		s.render(w, http.StatusBadRequest, "join", map[string]any{"OK": false})
		return
	}
	if err != nil {
		s.fail(w, "Join", err)
		return
	}
	s.Logger.Info("Invite redeemed on the web", "owner", owner)
	s.render(w, http.StatusOK, "join", map[string]any{"OK": true})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "version": s.Version}
	status := http.StatusOK
	if s.Health != nil {
		if err := s.Health.Ping(r.Context()); err != nil {
			s.Logger.Error("Health check failed", "err", err)
			resp["status"] = "unavailable"
			status = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// readForm returns the cleaned username and text. ok is false on a wrong captcha.
func (s *Server) readForm(r *http.Request) (username, text string, ok bool) {
	if strings.TrimSpace(r.PostFormValue("captcha")) != s.CaptchaAnswer {
		return "", "", false
	}

	username = dispatch.Clip(r.PostFormValue("username"), UsernameLimit)
	if username == "" {
		username = DefaultUsername
	}
	// Long posts are cut to TextLimit rather than rejected.
	text, err := dispatch.SanitizeInput(dispatch.Clip(r.PostFormValue("text"), TextLimit))
	if err != nil {
		return username, "", true
	}
	return username, dispatch.Clip(text, TextLimit), true
}

// allow applies the web guard keyed by client address.
func (s *Server) allow(r *http.Request) bool {
	if s.Guard.Allow(r.Context(), clientIP(r), s.WebInterval) {
		return true
	}
	s.Logger.Debug("Form throttled", "path", r.URL.Path)
	s.Metrics.Throttled(s.Guard.Namespace())
	return false
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	s.Logger.Error(op+" failed", "err", err)
	http.Error(w, "Internal error", http.StatusInternalServerError)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func recipeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func formError(r *http.Request) string {
	if r.URL.Query().Get("error") == errCaptcha {
		return "Wrong answer. Please try again."
	}
	return ""
}
