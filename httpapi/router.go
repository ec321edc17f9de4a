// Package httpapi translates HTTP requests into use-case calls. The wire
// format is plumbing, not a contract; the interesting guarantees live in the
// domain and outbox packages.
package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guilhermewiebbeling/ticketing/app"
	"github.com/guilhermewiebbeling/ticketing/domain"
	"github.com/guilhermewiebbeling/ticketing/keylock"
)

// UseCases bundles the application services the router exposes.
type UseCases struct {
	CreateEvent    *app.CreateEvent
	CreatePartner  *app.CreatePartner
	CreateCustomer *app.CreateCustomer
	GetPartner     *app.GetPartnerByID
	GetCustomer    *app.GetCustomerByID
	Subscribe      *app.SubscribeCustomerToEvent
}

// NewRouter wires the REST endpoints.
func NewRouter(uc UseCases) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/partners", createPartner(uc.CreatePartner))
	r.GET("/partners/:id", getPartner(uc.GetPartner))
	r.POST("/customers", createCustomer(uc.CreateCustomer))
	r.GET("/customers/:id", getCustomer(uc.GetCustomer))
	r.POST("/events", createEvent(uc.CreateEvent))
	r.POST("/events/:id/subscribe", subscribe(uc.Subscribe))

	return r
}

type createPartnerRequest struct {
	Name  string `json:"name"`
	CNPJ  string `json:"cnpj"`
	Email string `json:"email"`
}

func createPartner(uc *app.CreatePartner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createPartnerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		out, err := uc.Execute(c.Request.Context(), app.CreatePartnerInput{
			Name:  req.Name,
			CNPJ:  req.CNPJ,
			Email: req.Email,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":    out.PartnerID,
			"name":  out.Name,
			"cnpj":  out.CNPJ,
			"email": out.Email,
		})
	}
}

func getPartner(uc *app.GetPartnerByID) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := uc.Execute(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if out == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Partner not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":    out.PartnerID,
			"name":  out.Name,
			"cnpj":  out.CNPJ,
			"email": out.Email,
		})
	}
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Email string `json:"email"`
}

func createCustomer(uc *app.CreateCustomer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		out, err := uc.Execute(c.Request.Context(), app.CreateCustomerInput{
			Name:  req.Name,
			CPF:   req.CPF,
			Email: req.Email,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":    out.CustomerID,
			"name":  out.Name,
			"cpf":   out.CPF,
			"email": out.Email,
		})
	}
}

func getCustomer(uc *app.GetCustomerByID) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := uc.Execute(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		if out == nil {
			c.JSON(http.StatusNotFound, gin.H{"message": "Customer not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":    out.CustomerID,
			"name":  out.Name,
			"cpf":   out.CPF,
			"email": out.Email,
		})
	}
}

type createEventRequest struct {
	Name       string `json:"name"`
	Date       string `json:"date"`
	TotalSpots int    `json:"totalSpots"`
	PartnerID  string `json:"partnerId"`
}

func createEvent(uc *app.CreateEvent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		out, err := uc.Execute(c.Request.Context(), app.CreateEventInput{
			Name:       req.Name,
			Date:       req.Date,
			TotalSpots: req.TotalSpots,
			PartnerID:  req.PartnerID,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":         out.EventID,
			"name":       out.Name,
			"date":       out.Date,
			"totalSpots": out.TotalSpots,
			"partnerId":  out.PartnerID,
		})
	}
}

type subscribeRequest struct {
	CustomerID string `json:"customerId"`
}

func subscribe(uc *app.SubscribeCustomerToEvent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req subscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
			return
		}
		out, err := uc.Execute(c.Request.Context(), app.SubscribeCustomerToEventInput{
			EventID:    c.Param("id"),
			CustomerID: req.CustomerID,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"eventTicketId":   out.EventTicketID,
			"eventId":         out.EventID,
			"ordering":        out.Ordering,
			"reservationDate": out.ReservationDate,
		})
	}
}

// writeError maps domain and infrastructure errors onto HTTP statuses.
// Lookups that miss map to 404, business-rule violations to 422, contention
// (lock timeout, version conflict) to 409 so clients know to retry.
func writeError(c *gin.Context, err error) {
	var ve domain.ValidationError
	if errors.As(err, &ve) {
		status := http.StatusUnprocessableEntity
		if strings.HasSuffix(ve.Msg, "not found") {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"message": ve.Msg})
		return
	}

	var lt keylock.ErrLockTimeout
	var cc domain.ErrConcurrency
	if errors.As(err, &lt) || errors.As(err, &cc) {
		c.JSON(http.StatusConflict, gin.H{"message": "the event is busy, please retry"})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
}
