package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestClient(apiURL string, retries int) *Client {
	return New(Config{APIURL: apiURL, APIKey: "test-key", RPS: 1000, Retries: retries}, testLogger())
}

func TestExtractSuccess(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Method, qt.Equals, http.MethodPost)
		c.Check(r.Header.Get("Authorization"), qt.Equals, "Bearer test-key")

		var req scrapeRequest
		c.Check(json.NewDecoder(r.Body).Decode(&req), qt.IsNil)
		c.Check(req.URL, qt.Equals, "https://shop.example/item/1")

		json.NewEncoder(w).Encode(scrapeResponse{
			Success: true,
			Data: &Result{
				ProductName:  "Mechanical Keyboard",
				CurrentPrice: 89.99,
				Currency:     "EUR",
				ImageURL:     "/img/kb.jpg",
			},
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, 0).Extract(context.Background(), "https://shop.example/item/1")
	c.Assert(err, qt.IsNil)
	c.Assert(res.ProductName, qt.Equals, "Mechanical Keyboard")
	c.Assert(res.CurrentPrice, qt.Equals, 89.99)
	c.Assert(res.Currency, qt.Equals, "EUR")
}

func TestExtractMissingPriceIsNoData(t *testing.T) {
	c := qt.New(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(scrapeResponse{
			Success: true,
			Data:    &Result{ProductName: "Nameless thing"},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 3).Extract(context.Background(), "https://shop.example/item/2")
	c.Assert(err, qt.ErrorIs, ErrNoData)
	// Unusable results are terminal, not retried.
	c.Assert(calls.Load(), qt.Equals, int32(1))
}

func TestExtractRetriesServerErrors(t *testing.T) {
	c := qt.New(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream busy", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(scrapeResponse{
			Success: true,
			Data:    &Result{ProductName: "Lamp", CurrentPrice: 25},
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL, 2).Extract(context.Background(), "https://shop.example/item/3")
	c.Assert(err, qt.IsNil)
	c.Assert(res.CurrentPrice, qt.Equals, 25.0)
	c.Assert(calls.Load(), qt.Equals, int32(2))
}

func TestExtractGivesUpAfterRetries(t *testing.T) {
	c := qt.New(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 1).Extract(context.Background(), "https://shop.example/item/4")
	c.Assert(err, qt.IsNotNil)
	c.Assert(calls.Load(), qt.Equals, int32(2))
}
