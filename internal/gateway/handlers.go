package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"fenrir/internal/wire"
)

// placeLimitOrderRequest is the POST /orders JSON body.
type placeLimitOrderRequest struct {
	UserID   uint64    `json:"user_id" binding:"required"`
	Side     wire.Side `json:"side" binding:"required,oneof=1 2"`
	Price    uint64    `json:"price" binding:"required"`
	Quantity uint64    `json:"quantity" binding:"required"`
}

type cancelOrderRequest struct {
	OrderID uint64 `json:"order_id" binding:"required"`
}

// Handlers binds the order placement/cancellation routes to a Queue.
type Handlers struct {
	queue *Queue
}

// NewHandlers returns Handlers backed by queue.
func NewHandlers(queue *Queue) *Handlers {
	return &Handlers{queue: queue}
}

// Register mounts the routes onto r.
func (h *Handlers) Register(r gin.IRouter) {
	r.POST("/orders", h.placeLimitOrder)
	r.DELETE("/orders", h.cancelOrder)
}

func (h *Handlers) placeLimitOrder(c *gin.Context) {
	var req placeLimitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := wire.WireMessage{Payload: wire.PlaceLimitOrder{
		UserID:   req.UserID,
		Side:     req.Side,
		Price:    req.Price,
		Quantity: req.Quantity,
	}}

	if err := h.enqueue(c, msg); err != nil {
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handlers) cancelOrder(c *gin.Context) {
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := wire.WireMessage{Payload: wire.CancelOrder{OrderID: req.OrderID}}

	if err := h.enqueue(c, msg); err != nil {
		return
	}
	c.Status(http.StatusOK)
}

// enqueue pushes msg onto the queue, writing the 500 response itself on
// ErrQueueFull so callers only need to check for a non-nil error.
func (h *Handlers) enqueue(c *gin.Context, msg wire.WireMessage) error {
	if err := h.queue.Enqueue(msg); err != nil {
		if errors.Is(err, ErrQueueFull) {
			log.Error().Msg("command queue full, rejecting request")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "command queue full"})
			return err
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return err
	}
	return nil
}
