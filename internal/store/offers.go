package store

import (
	"context"

	"cloud.google.com/go/firestore"

	"github.com/mobigear/backend-parts/internal/pricing"
)

const offersCollection = "offers"

// Offers exposes discount offer access.
type Offers struct{ *Repo[pricing.Offer] }

// NewOffers binds the offers repository.
func NewOffers(c *Client) Offers {
	return Offers{NewRepo[pricing.Offer](c, offersCollection)}
}

// All returns every offer regardless of status. The pricing engine needs
// the full set because prepaid percentages come from the whole catalog.
func (o Offers) All(ctx context.Context) ([]pricing.Offer, error) {
	docs, err := o.Query(ctx, nil)
	if err != nil {
		return nil, err
	}
	return withIDs(docs), nil
}

// Active returns offers whose status is Active.
func (o Offers) Active(ctx context.Context) ([]pricing.Offer, error) {
	docs, err := o.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("status", "==", pricing.OfferStatusActive)
	})
	if err != nil {
		return nil, err
	}
	return withIDs(docs), nil
}

func withIDs(docs []Doc[pricing.Offer]) []pricing.Offer {
	out := make([]pricing.Offer, 0, len(docs))
	for _, d := range docs {
		offer := d.Data
		offer.ID = d.ID
		out = append(out, offer)
	}
	return out
}
