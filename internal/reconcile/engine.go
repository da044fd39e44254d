// Package reconcile implements the scheduled price sweep and the shared
// compare-and-record logic behind product ingestion.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kmalyshev/pricetrack/internal/extract"
	"github.com/kmalyshev/pricetrack/internal/notify"
	"github.com/kmalyshev/pricetrack/internal/products"
)

var (
	ErrInvalidInput     = errors.New("url is required")
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrExtractionFailed = errors.New("could not extract product data")
)

// ProductStore is the slice of the repository the engine needs.
type ProductStore interface {
	All(ctx context.Context) ([]products.Product, error)
	ByOwnerAndURL(ctx context.Context, ownerID, url string) (*products.Product, error)
	Upsert(ctx context.Context, p *products.Product) error
	UpdateSnapshot(ctx context.Context, id string, s products.Snapshot) error
	InsertHistory(ctx context.Context, productID string, price float64, currency string) error
}

type Extractor interface {
	Extract(ctx context.Context, url string) (*extract.Result, error)
}

type Notifier interface {
	SendPriceDrop(ctx context.Context, to string, d notify.PriceDrop) error
}

type IdentityLookup interface {
	EmailByOwner(ctx context.Context, ownerID string) (string, bool, error)
}

type Engine struct {
	store     ProductStore
	extractor Extractor
	notifier  Notifier
	identity  IdentityLookup
	log       *logrus.Logger
}

func New(store ProductStore, extractor Extractor, notifier Notifier, identity IdentityLookup, log *logrus.Logger) *Engine {
	return &Engine{
		store:     store,
		extractor: extractor,
		notifier:  notifier,
		identity:  identity,
		log:       log,
	}
}

// RunSweep re-checks every tracked product. A failed product list load is the
// only fatal outcome; everything past that point is isolated per item, so one
// unreachable listing never blocks the rest. Cancellation mid-sweep returns
// the partial report accumulated so far.
func (e *Engine) RunSweep(ctx context.Context) (*Report, error) {
	items, err := e.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}

	e.log.WithField("total", len(items)).Info("sweep: started")
	rep := newReport(len(items))

	for i := range items {
		select {
		case <-ctx.Done():
			e.log.WithField("processed", i).Warn("sweep: cancelled, returning partial report")
			return rep, nil
		default:
		}
		e.sweepOne(ctx, &items[i], rep)
	}

	e.log.WithFields(logrus.Fields{
		"total":        rep.Total,
		"updated":      rep.Updated,
		"failed":       rep.Failed,
		"priceChanges": rep.PriceChanges,
		"alertsSent":   rep.AlertsSent,
	}).Info("sweep: finished")
	return rep, nil
}

func (e *Engine) sweepOne(ctx context.Context, p *products.Product, rep *Report) {
	itemLog := e.log.WithFields(logrus.Fields{"product_id": p.ID, "url": p.URL})

	res, err := e.extractor.Extract(ctx, p.URL)
	if err != nil {
		itemLog.WithError(err).Warn("sweep: extraction failed")
		rep.fail(p.ID, fmt.Sprintf("extraction failed: %v", err))
		return
	}
	if res.CurrentPrice <= 0 {
		itemLog.Warn("sweep: extraction returned no usable price")
		rep.fail(p.ID, "extraction returned no usable price")
		return
	}

	// Old values are captured before the write; comparing against a re-read
	// would always see "unchanged".
	oldPrice := p.CurrentPrice
	oldCurrency := p.Currency

	newPrice := res.CurrentPrice
	newCurrency := res.Currency
	if newCurrency == "" {
		newCurrency = p.Currency
	}
	name := res.ProductName
	if name == "" {
		name = p.Name
	}
	img := res.ImageURL
	if img == "" {
		img = p.ImageURL
	}
	img = resolveImageURL(img, p.URL)

	err = e.store.UpdateSnapshot(ctx, p.ID, products.Snapshot{
		Name:     name,
		Price:    newPrice,
		Currency: newCurrency,
		ImageURL: img,
	})
	if err != nil {
		itemLog.WithError(err).Error("sweep: product update failed")
		rep.fail(p.ID, fmt.Sprintf("update failed: %v", err))
		return
	}
	rep.Updated++

	if newPrice == oldPrice && newCurrency == oldCurrency {
		return
	}

	itemLog.WithFields(logrus.Fields{"old": oldPrice, "new": newPrice}).Info("sweep: price change")
	if err := e.store.InsertHistory(ctx, p.ID, newPrice, newCurrency); err != nil {
		itemLog.WithError(err).Error("sweep: history insert failed")
		rep.note(p.ID, fmt.Sprintf("history insert failed: %v", err))
	}
	rep.PriceChanges++

	if newPrice >= oldPrice {
		return
	}

	email, ok, err := e.identity.EmailByOwner(ctx, p.OwnerID)
	if err != nil {
		itemLog.WithError(err).Warn("sweep: owner lookup failed, skipping alert")
		return
	}
	if !ok {
		itemLog.Info("sweep: owner has no email, skipping alert")
		return
	}

	err = e.notifier.SendPriceDrop(ctx, email, notify.PriceDrop{
		ProductName: name,
		ProductURL:  p.URL,
		ImageURL:    img,
		Currency:    newCurrency,
		OldPrice:    oldPrice,
		NewPrice:    newPrice,
	})
	if err != nil {
		// The price update already succeeded; the failed alert is recorded
		// without marking the product failed.
		itemLog.WithError(err).Error("sweep: alert failed")
		rep.note(p.ID, fmt.Sprintf("email failed: %v", err))
		return
	}
	rep.AlertsSent++
}

// Ingest handles one user-submitted URL: a single extraction, an upsert keyed
// by (owner, url) and a history row when the product is new or its price
// changed. The change test matches the sweep's exactly, so history is
// consistent regardless of which path produced it.
func (e *Engine) Ingest(ctx context.Context, ownerID, rawURL string) (*products.Product, bool, error) {
	if ownerID == "" {
		return nil, false, ErrUnauthenticated
	}
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, false, ErrInvalidInput
	}

	res, err := e.extractor.Extract(ctx, rawURL)
	if err != nil {
		e.log.WithError(err).WithField("url", rawURL).Warn("ingest: extraction failed")
		return nil, false, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if res.ProductName == "" || res.CurrentPrice <= 0 {
		return nil, false, ErrExtractionFailed
	}

	existing, err := e.store.ByOwnerAndURL(ctx, ownerID, rawURL)
	if err != nil {
		return nil, false, fmt.Errorf("lookup product: %w", err)
	}
	isUpdate := existing != nil

	cur := res.Currency
	if cur == "" {
		cur = "USD"
	}

	p := &products.Product{
		OwnerID:      ownerID,
		URL:          rawURL,
		Name:         res.ProductName,
		CurrentPrice: res.CurrentPrice,
		Currency:     cur,
		ImageURL:     resolveImageURL(res.ImageURL, rawURL),
	}
	if err := e.store.Upsert(ctx, p); err != nil {
		return nil, false, err
	}

	changed := !isUpdate || existing.CurrentPrice != res.CurrentPrice || existing.Currency != cur
	if changed {
		if err := e.store.InsertHistory(ctx, p.ID, res.CurrentPrice, cur); err != nil {
			// The product row is already persisted; the ledger resumes on
			// the next observed change.
			e.log.WithError(err).WithField("product_id", p.ID).Error("ingest: history insert failed")
		}
	}

	return p, !isUpdate, nil
}
