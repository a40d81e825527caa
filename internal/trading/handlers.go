package trading

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/zyrticx/tradesmart-api/pkg/response"
)

// GinHandlers contains HTTP handlers for trade and ledger endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for trading endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// CreateTradeHandler handles POST requests to record a new trade
func (h *GinHandlers) CreateTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewTrade
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.CreateTrade(c.GetString("userID"), req)
		if errors.Is(err, ErrInvalidDirection) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Handle(c, trade, err)
	}
}

// ListTradesHandler handles GET requests for a user's trades, with an
// optional account_id query filter
func (h *GinHandlers) ListTradesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trades, err := h.service.ListTrades(c.GetString("userID"), c.Query("account_id"))
		response.Handle(c, trades, err)
	}
}

// GetTradeHandler handles GET requests for a single reconciled trade
func (h *GinHandlers) GetTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trade, err := h.service.GetTrade(c.Param("trade_id"), c.GetString("userID"))
		if errors.Is(err, ErrTradeNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, trade, err)
	}
}

// UpdateTradeHandler handles PUT requests to edit a trade's static fields
func (h *GinHandlers) UpdateTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewTrade
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.UpdateTrade(c.Param("trade_id"), c.GetString("userID"), req)
		switch {
		case errors.Is(err, ErrTradeNotFound):
			response.Gone(c, err.Error())
		case errors.Is(err, ErrInvalidDirection):
			response.BadRequest(c, err.Error())
		default:
			response.Handle(c, trade, err)
		}
	}
}

// DeleteTradeHandler handles DELETE requests for a trade and its ledger
func (h *GinHandlers) DeleteTradeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.service.DeleteTrade(c.Param("trade_id"), c.GetString("userID"))
		if errors.Is(err, ErrTradeNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, gin.H{"deleted": true}, err)
	}
}

// AddEventHandler handles POST requests to append a buy/add/sell event
func (h *GinHandlers) AddEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewEvent
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.AddEvent(c.Param("trade_id"), c.GetString("userID"), req)
		switch {
		case errors.Is(err, ErrTradeNotFound):
			response.Gone(c, err.Error())
		case errors.Is(err, ErrInvalidEventType):
			response.BadRequest(c, err.Error())
		default:
			response.Handle(c, trade, err)
		}
	}
}

// ListEventsHandler handles GET requests for a trade's ledger
func (h *GinHandlers) ListEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := h.service.ListEvents(c.Param("trade_id"), c.GetString("userID"))
		if errors.Is(err, ErrTradeNotFound) {
			response.Gone(c, err.Error())
			return
		}
		response.Handle(c, events, err)
	}
}

// UpdateEventHandler handles PUT requests to edit a ledger event
func (h *GinHandlers) UpdateEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req NewEvent
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		trade, err := h.service.UpdateEvent(c.Param("trade_id"), c.Param("event_id"), c.GetString("userID"), req)
		switch {
		case errors.Is(err, ErrTradeNotFound), errors.Is(err, ErrEventNotFound):
			response.Gone(c, err.Error())
		case errors.Is(err, ErrInvalidEventType):
			response.BadRequest(c, err.Error())
		default:
			response.Handle(c, trade, err)
		}
	}
}

// DeleteEventHandler handles DELETE requests for a ledger event. Removing
// the last event removes the trade too, which the response indicates.
func (h *GinHandlers) DeleteEventHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		trade, tradeDeleted, err := h.service.DeleteEvent(c.Param("trade_id"), c.Param("event_id"), c.GetString("userID"))
		switch {
		case errors.Is(err, ErrTradeNotFound), errors.Is(err, ErrEventNotFound):
			response.Gone(c, err.Error())
		case err != nil:
			response.Handle(c, nil, err)
		case tradeDeleted:
			response.Success(c, gin.H{"deleted": true, "trade_deleted": true})
		default:
			response.Success(c, trade)
		}
	}
}
