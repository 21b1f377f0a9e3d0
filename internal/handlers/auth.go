package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"amparo/internal/services"
)

type loginForm struct {
	Kind     string `form:"tipo"`
	Email    string `form:"email"`
	Password string `form:"senha"`
}

type registerForm struct {
	Kind     string `form:"tipo"`
	Name     string `form:"nome"`
	Email    string `form:"email"`
	Password string `form:"senha"`
}

// Authenticate handles POST /autenticar.
func (s *Server) Authenticate(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		fail(c, services.ErrInvalidCredentials, "/login")
		return
	}

	p, err := s.accounts.Authenticate(c.Request.Context(), services.LoginInput{
		Kind:     form.Kind,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		fail(c, err, "/login")
		return
	}
	if err := s.sessions.Login(c, p); err != nil {
		fail(c, err, "/login")
		return
	}

	addNotice(c, NoticeSuccess, "Logado com sucesso")
	redirect(c, "/")
}

// Register handles POST /cadastro.
func (s *Server) Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		fail(c, &services.ValidationError{Message: "Formulário inválido", Err: err}, "/cadastro")
		return
	}

	_, _, err := s.accounts.Register(c.Request.Context(), services.RegisterInput{
		Kind:     form.Kind,
		Name:     form.Name,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		fail(c, err, "/cadastro")
		return
	}

	addNotice(c, NoticeSuccess, "Cadastrado com sucesso")
	redirect(c, "/login")
}

// Logout handles GET /logout.
func (s *Server) Logout(c *gin.Context) {
	if err := s.sessions.Logout(c); err != nil {
		fail(c, err, "/login")
		return
	}
	addNotice(c, NoticeInfo, "Você saiu da conta.")
	redirect(c, "/login")
}
