package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSendPriceDrop(t *testing.T) {
	c := qt.New(t)

	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.Check(r.Header.Get("Authorization"), qt.Equals, "Bearer mail-key")
		c.Check(json.NewDecoder(r.Body).Decode(&got), qt.IsNil)
		json.NewEncoder(w).Encode(map[string]string{"id": "msg_1"})
	}))
	defer srv.Close()

	m := NewMailer(Config{APIURL: srv.URL, APIKey: "mail-key", From: "alerts@pricetrack.dev"}, testLogger())
	err := m.SendPriceDrop(context.Background(), "buyer@example.com", PriceDrop{
		ProductName: "Espresso Machine",
		ProductURL:  "https://shop.example/item/9",
		Currency:    "USD",
		OldPrice:    200,
		NewPrice:    150,
	})
	c.Assert(err, qt.IsNil)

	c.Assert(got.From, qt.Equals, "alerts@pricetrack.dev")
	c.Assert(got.To, qt.Equals, "buyer@example.com")
	c.Assert(strings.Contains(got.Subject, "Espresso Machine"), qt.IsTrue)
	c.Assert(strings.Contains(got.HTML, "https://shop.example/item/9"), qt.IsTrue)
	c.Assert(strings.Contains(got.HTML, "Save 25.0%"), qt.IsTrue)
}

func TestSendPriceDropAPIError(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid recipient"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	m := NewMailer(Config{APIURL: srv.URL, APIKey: "mail-key", From: "alerts@pricetrack.dev"}, testLogger())
	err := m.SendPriceDrop(context.Background(), "nobody", PriceDrop{ProductName: "X", OldPrice: 10, NewPrice: 5})
	c.Assert(err, qt.IsNotNil)
	c.Assert(strings.Contains(err.Error(), "422"), qt.IsTrue)
}

func TestSendPriceDropRequiresSender(t *testing.T) {
	c := qt.New(t)

	m := NewMailer(Config{APIURL: "http://localhost:0", APIKey: "k"}, testLogger())
	err := m.SendPriceDrop(context.Background(), "buyer@example.com", PriceDrop{OldPrice: 10, NewPrice: 5})
	c.Assert(err, qt.IsNotNil)
}
