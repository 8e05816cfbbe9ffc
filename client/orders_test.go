package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateOrderValidatesBeforeNetwork(t *testing.T) {
	var hits atomic.Int64
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	_, err := c.CreateOrder(context.Background(), CreateOrderInput{Flower: "rose"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "color")
	require.Contains(t, verr.Fields, "flower_height")
	require.Contains(t, verr.Fields, "quantity")
	require.Contains(t, verr.Fields, "recipients_address")
	require.Equal(t, int64(0), hits.Load())
}

func TestCreateOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/client/order/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var in struct {
			Flower string `json:"flower"`
			Color  struct {
				Text string `json:"text"`
			} `json:"color"`
			Quantity int `json:"quantity"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "rose", in.Flower)
		require.Equal(t, "red", in.Color.Text)
		require.Equal(t, 25, in.Quantity)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(CreatedOrder{
			UUID:   "order-1",
			Flower: TextRef{Text: in.Flower},
			Status: StatusPending,
		})
	})

	c, _, _ := newTestClient(t, mux)
	order, err := c.CreateOrder(context.Background(), CreateOrderInput{
		Flower:            "rose",
		Color:             TextRef{Text: "red"},
		FlowerHeight:      "60cm",
		Quantity:          25,
		RecipientsAddress: "Abay 10",
		RecipientsPhone:   "+77001234567",
	})
	require.NoError(t, err)
	require.Equal(t, "order-1", order.UUID)
	require.Equal(t, StatusPending, order.Status)
}

func TestCancelOrderRequiresReasonLocally(t *testing.T) {
	var hits atomic.Int64
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, reason := range []string{"", "   "} {
		_, err := c.CancelOrder(context.Background(), "order-1", reason)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{"reason"}, verr.Fields)
	}
	require.Equal(t, int64(0), hits.Load())
}

func TestCancelOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/client/order-1/cancel/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "changed my mind", body["reason"])
		json.NewEncoder(w).Encode(map[string]any{
			"detail": "order canceled",
			"order":  CurrentOrder{UUID: "order-1", Status: StatusCanceled, Reason: body["reason"]},
		})
	})

	c, _, _ := newTestClient(t, mux)
	order, err := c.CancelOrder(context.Background(), "order-1", "changed my mind")
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, order.Status)
	require.Equal(t, "changed my mind", order.Reason)
}

func TestAcceptProposalSetsPrice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/client/prices/prop-1/accept/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(CurrentOrder{UUID: "order-1", Status: StatusAccepted, Price: "5000"})
	})

	c, _, _ := newTestClient(t, mux)
	order, err := c.AcceptProposal(context.Background(), "prop-1")
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, order.Status)
	require.Equal(t, "5000", order.Price)
}

func TestAcceptProposalConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/client/prices/prop-1/accept/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "proposal no longer open"})
	})

	c, _, _ := newTestClient(t, mux)
	_, err := c.AcceptProposal(context.Background(), "prop-1")
	require.Error(t, err)
	require.True(t, IsConflict(err))
}

func TestProposedPricesEmptyWithoutOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/client/proposed-prices/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]ProposedPrice{})
	})

	c, _, _ := newTestClient(t, mux)
	prices, err := c.ProposedPrices(context.Background())
	require.NoError(t, err)
	require.NotNil(t, prices)
	require.Empty(t, prices)
}

func TestRateOrderBounds(t *testing.T) {
	var hits atomic.Int64
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, rating := range []int{0, -1, 6} {
		err := c.RateOrder(context.Background(), "order-1", rating)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}
	require.Equal(t, int64(0), hits.Load())
}

func TestConfirmDeliveryRatesThenCompletes(t *testing.T) {
	var sequence []string
	mux := http.NewServeMux()
	mux.HandleFunc("/client/rate/order-1/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, DefaultRating, body["rating"])
		sequence = append(sequence, "rate")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/client/order-status/order-1/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		sequence = append(sequence, "complete")
		json.NewEncoder(w).Encode(StatusChange{UUID: "order-1", Status: StatusCompleted})
	})

	c, _, _ := newTestClient(t, mux)
	change, err := c.ConfirmDelivery(context.Background(), "order-1", 0)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, change.Status)
	require.Equal(t, []string{"rate", "complete"}, sequence)
}

func TestLoginStoresNestedTokenPair(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/", func(w http.ResponseWriter, r *http.Request) {
		var in LoginInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "a@b.c", in.Email)
		json.NewEncoder(w).Encode(map[string]any{
			"data": TokenPair{Access: "login-access", Refresh: "login-refresh"},
		})
	})

	c, store, _ := newTestClient(t, mux)
	require.NoError(t, c.Login(context.Background(), LoginInput{Email: "a@b.c", Password: "secret"}))

	access, refresh := c.Session().Tokens()
	require.Equal(t, "login-access", access)
	require.Equal(t, "login-refresh", refresh)
	require.Equal(t, "login-access", store.access)
}
