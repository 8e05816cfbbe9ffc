package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProposePriceRejectsBadPriceLocally(t *testing.T) {
	var hits atomic.Int64
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, price := range []string{"", "  ", "abc", "-5", "0"} {
		_, err := c.ProposePrice(context.Background(), "order-1", ProposePriceInput{ProposedPrice: price})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, []string{"proposed_price"}, verr.Fields)
	}
	require.Equal(t, int64(0), hits.Load())
}

func TestProposePriceSendsMultipart(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/propose-price/order-1/", func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		require.Equal(t, "5000", r.FormValue("proposed_price"))
		require.Equal(t, "fresh roses", r.FormValue("comment"))

		file, header, err := r.FormFile("flower_img")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "bouquet.jpg", header.Filename)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(ProposedPrice{UUID: "prop-1", ProposedPrice: "5000", StoreName: "Rosa"})
	})

	c, _, _ := newTestClient(t, mux)
	proposal, err := c.ProposePrice(context.Background(), "order-1", ProposePriceInput{
		ProposedPrice:   "5000",
		Comment:         "fresh roses",
		FlowerImgName:   "bouquet.jpg",
		FlowerImgReader: strings.NewReader("jpegbytes"),
	})
	require.NoError(t, err)
	require.Equal(t, "prop-1", proposal.UUID)
	require.Equal(t, "5000", proposal.ProposedPrice)
}

func TestProposePriceDuplicateConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/propose-price/order-1/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "price already proposed for this order"})
	})

	c, _, _ := newTestClient(t, mux)
	_, err := c.ProposePrice(context.Background(), "order-1", ProposePriceInput{ProposedPrice: "5000"})
	require.True(t, IsConflict(err))
}

func TestAdvanceOrderRejectsBadTargets(t *testing.T) {
	var hits atomic.Int64
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))

	for _, status := range []string{StatusPending, StatusCanceled, "shipped"} {
		_, err := c.AdvanceOrder(context.Background(), "order-1", status)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	}
	require.Equal(t, int64(0), hits.Load())
}

func TestAdvanceOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/order-status/order-1/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, StatusInTransit, body["status"])
		json.NewEncoder(w).Encode(StatusChange{UUID: "order-1", Status: StatusInTransit})
	})

	c, _, _ := newTestClient(t, mux)
	change, err := c.AdvanceOrder(context.Background(), "order-1", StatusInTransit)
	require.NoError(t, err)
	require.Equal(t, StatusInTransit, change.Status)
}

func TestHistoryQueryParams(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/history/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "true", r.URL.Query().Get("isRelevant"))
		next := "/store/history/?page=3"
		json.NewEncoder(w).Encode(StoreHistoryPage{
			Count:   21,
			Next:    &next,
			Results: []StoreHistoryOrder{{UUID: "order-9", Status: StatusAccepted}},
		})
	})

	c, _, _ := newTestClient(t, mux)
	page, err := c.History(context.Background(), 2, true)
	require.NoError(t, err)
	require.EqualValues(t, 21, page.Count)
	require.NotNil(t, page.Next)
	require.Len(t, page.Results, 1)
}

func TestHistoryFirstPageOmitsPageParam(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/history/", func(w http.ResponseWriter, r *http.Request) {
		require.False(t, r.URL.Query().Has("page"))
		require.False(t, r.URL.Query().Has("isRelevant"))
		json.NewEncoder(w).Encode(StoreHistoryPage{Results: []StoreHistoryOrder{}})
	})

	c, _, _ := newTestClient(t, mux)
	_, err := c.History(context.Background(), 1, false)
	require.NoError(t, err)
}

func TestIncomingOrders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/store/orders/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]IncomingOrder{
			{UUID: "order-1", FirstName: "Aigerim", Flower: TextRef{Text: "rose"}, Quantity: 15},
		})
	})

	c, _, _ := newTestClient(t, mux)
	orders, err := c.IncomingOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "Aigerim", orders[0].FirstName)
}
