package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"amparo/internal/services"
)

type donationForm struct {
	Item         string `form:"item"`
	Description  string `form:"descricao"`
	UrgencyLevel string `form:"urgencia"`
	ContactInfo  string `form:"contato"`
}

func (f donationForm) input() services.DonationInput {
	return services.DonationInput{
		Item:         f.Item,
		Description:  f.Description,
		UrgencyLevel: f.UrgencyLevel,
		ContactInfo:  f.ContactInfo,
	}
}

// ListOwnRequests handles GET /doacoes.
func (s *Server) ListOwnRequests(c *gin.Context) {
	reqs, err := s.donations.ListOwn(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err, "/")
		return
	}
	render(c, "doacoes", gin.H{"requests": reqs})
}

// CreateRequest handles POST /doacoes.
func (s *Server) CreateRequest(c *gin.Context) {
	var form donationForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		fail(c, &services.ValidationError{Message: "Formulário inválido", Err: err}, "/doacoes")
		return
	}
	if _, err := s.donations.Create(c.Request.Context(), principal(c), form.input()); err != nil {
		fail(c, err, "/doacoes")
		return
	}
	addNotice(c, NoticeSuccess, "Pedido de doação criado com sucesso")
	redirect(c, "/doacoes")
}

// ListAvailableRequests handles GET /doacoes_disponiveis.
func (s *Server) ListAvailableRequests(c *gin.Context) {
	reqs, err := s.donations.ListAll(c.Request.Context(), principal(c))
	if err != nil {
		fail(c, err, "/")
		return
	}
	render(c, "doacoes_disponiveis", gin.H{"requests": reqs})
}

// DeleteRequest handles POST /deletar_pedido/:id.
func (s *Server) DeleteRequest(c *gin.Context) {
	id, err := services.ParseRequestID(c.Param("id"))
	if err != nil {
		fail(c, err, "/doacoes")
		return
	}
	if err := s.donations.Delete(c.Request.Context(), principal(c), id); err != nil {
		fail(c, err, "/doacoes")
		return
	}
	addNotice(c, NoticeSuccess, "Pedido excluído com sucesso")
	redirect(c, "/doacoes")
}

// EditRequestView handles GET /editar_pedido/:id.
func (s *Server) EditRequestView(c *gin.Context) {
	id, err := services.ParseRequestID(c.Param("id"))
	if err != nil {
		fail(c, err, "/doacoes")
		return
	}
	req, err := s.donations.GetForEdit(c.Request.Context(), principal(c), id)
	if err != nil {
		fail(c, err, "/doacoes")
		return
	}
	render(c, "editar_pedido", gin.H{"request": req})
}

// EditRequest handles POST /editar_pedido/:id.
func (s *Server) EditRequest(c *gin.Context) {
	id, err := services.ParseRequestID(c.Param("id"))
	if err != nil {
		fail(c, err, "/doacoes")
		return
	}
	back := "/editar_pedido/" + c.Param("id")

	var form donationForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		fail(c, &services.ValidationError{Message: "Formulário inválido", Err: err}, back)
		return
	}
	if _, err := s.donations.Update(c.Request.Context(), principal(c), id, form.input()); err != nil {
		fail(c, err, back)
		return
	}
	addNotice(c, NoticeSuccess, "Pedido atualizado com sucesso")
	redirect(c, "/doacoes")
}
