package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"amparo/internal/auth"
	"amparo/internal/database"
	"amparo/internal/logging"
	"amparo/internal/models"
	"amparo/internal/services"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	store     database.Store
	accounts  *services.AccountService
	donations *services.DonationService
	sessions  *auth.Manager
}

// NewServer creates a Server.
func NewServer(store database.Store, accounts *services.AccountService, donations *services.DonationService, sessions *auth.Manager) *Server {
	return &Server{store: store, accounts: accounts, donations: donations, sessions: sessions}
}

// view is the JSON model returned in place of a rendered page.
type view struct {
	Page      string          `json:"page"`
	Principal *auth.Principal `json:"principal,omitempty"`
	Data      interface{}     `json:"data,omitempty"`
	Notices   []Notice        `json:"notices"`
}

func render(c *gin.Context, page string, data interface{}) {
	v := view{Page: page, Data: data, Notices: takeNotices(c)}
	if p, ok := auth.CurrentPrincipal(c); ok {
		v.Principal = &p
	}
	c.JSON(http.StatusOK, v)
}

// redirect answers 303 to form posts and 302 otherwise.
func redirect(c *gin.Context, location string) {
	status := http.StatusFound
	if c.Request.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	c.Redirect(status, location)
}

// landing is the home view of each role.
func landing(role models.Role) string {
	if role == models.RoleCaregiver {
		return "/doacoes_disponiveis"
	}
	return "/doacoes"
}

// principal returns the caller. Routes using it sit behind RequireLogin.
func principal(c *gin.Context) auth.Principal {
	p, _ := auth.CurrentPrincipal(c)
	return p
}

func denyAnonymous(c *gin.Context) {
	addNotice(c, NoticeWarning, "Faça login para continuar")
	redirect(c, "/login")
}

// fail turns a service error into a notice and a redirect. Validation and conflict
// errors go back to fallback; role and ownership errors go to the caller's landing view.
func fail(c *gin.Context, err error, fallback string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		addNotice(c, NoticeDanger, verr.Message)
		redirect(c, fallback)
	case errors.Is(err, services.ErrPasswordMismatch):
		addNotice(c, NoticeDanger, "A nova senha e a confirmação não coincidem")
		redirect(c, fallback)
	case errors.Is(err, services.ErrInvalidCredentials):
		addNotice(c, NoticeDanger, "Login ou senha incorretos")
		redirect(c, "/login")
	case errors.Is(err, services.ErrWrongPassword):
		addNotice(c, NoticeDanger, "Senha atual incorreta")
		redirect(c, fallback)
	case errors.Is(err, services.ErrEmailTaken):
		addNotice(c, NoticeDanger, "Este email já está cadastrado")
		redirect(c, fallback)
	case errors.Is(err, services.ErrRoleNotAllowed):
		addNotice(c, NoticeWarning, "Esta página não está disponível para o seu tipo de conta")
		redirect(c, landing(principal(c).Role))
	case errors.Is(err, services.ErrPermissionDenied):
		addNotice(c, NoticeDanger, "Você não tem permissão para alterar este pedido")
		redirect(c, landing(principal(c).Role))
	case errors.Is(err, services.ErrNotFound):
		addNotice(c, NoticeWarning, "Pedido não encontrado")
		redirect(c, landing(principal(c).Role))
	default:
		_ = c.Error(err)
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		addNotice(c, NoticeDanger, "Ocorreu um erro inesperado, tente novamente")
		redirect(c, fallback)
	}
}
