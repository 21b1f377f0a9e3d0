package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"amparo/internal/auth"
	"amparo/internal/models"
	"amparo/internal/services"
)

type profileForm struct {
	Name            string `form:"nome"`
	Email           string `form:"email"`
	CurrentPassword string `form:"senha_atual"`
	NewPassword     string `form:"nova_senha"`
	ConfirmPassword string `form:"confirmar_senha"`
}

type profileData struct {
	Account *models.Account `json:"account"`
	Role    models.Role     `json:"role"`
}

// accountGone ends a session whose account no longer exists.
func (s *Server) accountGone(c *gin.Context, p auth.Principal) {
	_ = s.sessions.RevokeAccount(c, p.Key())
	addNotice(c, NoticeWarning, "Conta não encontrada")
	redirect(c, "/login")
}

func (s *Server) profileView(page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := principal(c)
		acct, err := s.accounts.Profile(c.Request.Context(), p)
		if errors.Is(err, services.ErrNotFound) {
			s.accountGone(c, p)
			return
		}
		if err != nil {
			fail(c, err, "/")
			return
		}
		render(c, page, profileData{Account: acct, Role: p.Role})
	}
}

// EditProfile handles POST /editar_perfil.
func (s *Server) EditProfile(c *gin.Context) {
	var form profileForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		fail(c, &services.ValidationError{Message: "Formulário inválido", Err: err}, "/editar_perfil")
		return
	}

	p := principal(c)
	updated, err := s.accounts.EditProfile(c.Request.Context(), p, services.ProfileInput{
		Name:            form.Name,
		Email:           form.Email,
		CurrentPassword: form.CurrentPassword,
		NewPassword:     form.NewPassword,
		ConfirmPassword: form.ConfirmPassword,
	})
	if errors.Is(err, services.ErrNotFound) {
		s.accountGone(c, p)
		return
	}
	if err != nil {
		fail(c, err, "/editar_perfil")
		return
	}
	if err := s.sessions.Refresh(c, updated); err != nil {
		fail(c, err, "/perfil")
		return
	}

	addNotice(c, NoticeSuccess, "Perfil atualizado com sucesso")
	redirect(c, "/perfil")
}

// DeleteAccount handles POST /deletar_conta.
func (s *Server) DeleteAccount(c *gin.Context) {
	p := principal(c)
	err := s.accounts.DeleteAccount(c.Request.Context(), p)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		fail(c, err, "/perfil")
		return
	}
	if err := s.sessions.RevokeAccount(c, p.Key()); err != nil {
		fail(c, err, "/")
		return
	}
	addNotice(c, NoticeInfo, "Sua conta foi excluída")
	redirect(c, "/")
}
