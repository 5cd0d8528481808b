package gateway_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/gateway"
	"fenrir/internal/wire"
)

func newRouter(q *gateway.Queue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	gateway.NewHandlers(q).Register(r)
	return r
}

func TestPlaceLimitOrder_Enqueues(t *testing.T) {
	q := gateway.NewQueue()
	r := newRouter(q)

	body := []byte(`{"user_id":1,"side":1,"price":10000,"quantity":5}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case msg := <-q.Dequeue():
		placed, ok := msg.Payload.(wire.PlaceLimitOrder)
		require.True(t, ok)
		assert.Equal(t, uint64(1), placed.UserID)
		assert.Equal(t, wire.SideBuy, placed.Side)
		assert.Equal(t, uint64(10000), placed.Price)
		assert.Equal(t, uint64(5), placed.Quantity)
	default:
		t.Fatal("expected a command on the queue")
	}
}

func TestPlaceLimitOrder_RejectsZeroQuantity(t *testing.T) {
	q := gateway.NewQueue()
	r := newRouter(q)

	body := []byte(`{"user_id":1,"side":1,"price":10000,"quantity":0}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceLimitOrder_RejectsUnknownSide(t *testing.T) {
	q := gateway.NewQueue()
	r := newRouter(q)

	body := []byte(`{"user_id":1,"side":3,"price":10000,"quantity":5}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelOrder_Enqueues(t *testing.T) {
	q := gateway.NewQueue()
	r := newRouter(q)

	body := []byte(`{"order_id":42}`)
	req := httptest.NewRequest(http.MethodDelete, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	msg := <-q.Dequeue()
	cancelled, ok := msg.Payload.(wire.CancelOrder)
	require.True(t, ok)
	assert.Equal(t, uint64(42), cancelled.OrderID)
}

func TestPlaceLimitOrder_QueueFullReturns500(t *testing.T) {
	q := gateway.NewQueue()
	r := newRouter(q)

	body := []byte(`{"user_id":1,"side":1,"price":10000,"quantity":5}`)
	for i := 0; i < gateway.QueueCapacity; i++ {
		req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
