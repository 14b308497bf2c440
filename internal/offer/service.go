package offer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/mobigear/backend-parts/internal/common"
	"github.com/mobigear/backend-parts/internal/pricing"
	"github.com/mobigear/backend-parts/internal/store"
)

// Coupon application failures surface as user-facing messages, not codes.
const (
	MsgInvalidCoupon        = "Invalid Coupon Code"
	MsgCouponAlreadyApplied = "Coupon Already Applied"
	MsgCouponNotApplicable  = "Coupon Not Applicable On These Products"
)

// Repo captures the offer persistence methods the service needs.
type Repo interface {
	All(ctx context.Context) ([]pricing.Offer, error)
	Active(ctx context.Context) ([]pricing.Offer, error)
	Get(ctx context.Context, id string) (store.Doc[pricing.Offer], error)
	Create(ctx context.Context, value pricing.Offer) (string, error)
	Set(ctx context.Context, id string, value pricing.Offer) error
	Delete(ctx context.Context, id string) error
}

// Service evaluates coupon application rules and manages the offer catalog.
type Service struct {
	repo     Repo
	validate *validator.Validate
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{repo: repo, validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Apply validates a user-entered coupon code against the cart. The match
// is case-insensitive and only considers coded (non-prepaid) offers;
// status is deliberately not checked here. On success the matched offer
// is returned so the caller can record the applied code.
func (s *Service) Apply(ctx context.Context, code string, cart store.Cart) (pricing.Offer, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return pricing.Offer{}, common.BadRequest(MsgInvalidCoupon)
	}
	offers, err := s.repo.All(ctx)
	if err != nil {
		return pricing.Offer{}, fmt.Errorf("load offers: %w", err)
	}
	var matched *pricing.Offer
	for i := range offers {
		o := offers[i]
		if o.Prepaid() || o.CouponCode == "" {
			continue
		}
		if strings.EqualFold(o.CouponCode, code) {
			matched = &o
			break
		}
	}
	if matched == nil {
		return pricing.Offer{}, common.BadRequest(MsgInvalidCoupon)
	}
	for _, applied := range cart.AppliedCoupons {
		if strings.EqualFold(applied, matched.CouponCode) {
			return pricing.Offer{}, common.BadRequest(MsgCouponAlreadyApplied)
		}
	}
	if !eligible(*matched, cart) {
		return pricing.Offer{}, common.BadRequest(MsgCouponNotApplicable)
	}
	return *matched, nil
}

// AppliedOffers resolves the cart's stored coupon codes back to offers.
// Codes that no longer resolve are skipped rather than failing the quote.
func (s *Service) AppliedOffers(ctx context.Context, codes []string) ([]pricing.Offer, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	offers, err := s.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load offers: %w", err)
	}
	out := make([]pricing.Offer, 0, len(codes))
	for _, code := range codes {
		for i := range offers {
			o := offers[i]
			if o.Prepaid() || o.CouponCode == "" {
				continue
			}
			if strings.EqualFold(o.CouponCode, code) {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

// All returns the full offer catalog for the pricing engine's prepaid map.
func (s *Service) All(ctx context.Context) ([]pricing.Offer, error) {
	return s.repo.All(ctx)
}

// ListActive returns the informational listing of active offers.
func (s *Service) ListActive(ctx context.Context) ([]pricing.Offer, error) {
	return s.repo.Active(ctx)
}

func eligible(o pricing.Offer, cart store.Cart) bool {
	for _, line := range cart.Lines {
		if o.AppliesTo(line.Product.CategoryID) {
			return true
		}
	}
	return false
}

// Input is the admin payload for creating or updating an offer.
type Input struct {
	OfferType          string   `json:"offerType" validate:"required"`
	CouponCode         string   `json:"couponCode"`
	DiscountPercentage float64  `json:"discountPercentage" validate:"gte=0,lte=100"`
	Categories         []string `json:"categories" validate:"required,min=1,dive,required"`
	Status             string   `json:"status" validate:"required,oneof=Active Inactive"`
}

func (in Input) offer() pricing.Offer {
	return pricing.Offer{
		OfferType:          strings.TrimSpace(in.OfferType),
		CouponCode:         strings.TrimSpace(in.CouponCode),
		DiscountPercentage: in.DiscountPercentage,
		Categories:         in.Categories,
		Status:             in.Status,
	}
}

func (s *Service) validateInput(in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return common.BadRequest("invalid offer payload")
	}
	// Coded offers need a coupon code; prepaid offers never carry one.
	prepaid := strings.TrimSpace(in.OfferType) == pricing.OfferTypePrepaid
	code := strings.TrimSpace(in.CouponCode)
	if !prepaid && code == "" {
		return common.BadRequest("couponCode is required for coded offers")
	}
	if prepaid && code != "" {
		return common.BadRequest("prepaid offers must not carry a couponCode")
	}
	return nil
}

// Create validates and stores a new offer.
func (s *Service) Create(ctx context.Context, in Input) (pricing.Offer, error) {
	if err := s.validateInput(in); err != nil {
		return pricing.Offer{}, err
	}
	o := in.offer()
	id, err := s.repo.Create(ctx, o)
	if err != nil {
		return pricing.Offer{}, fmt.Errorf("create offer: %w", err)
	}
	o.ID = id
	return o, nil
}

// Update validates and replaces an existing offer.
func (s *Service) Update(ctx context.Context, id string, in Input) (pricing.Offer, error) {
	if err := s.validateInput(in); err != nil {
		return pricing.Offer{}, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return pricing.Offer{}, common.NotFound("offer not found")
		}
		return pricing.Offer{}, fmt.Errorf("get offer: %w", err)
	}
	o := in.offer()
	if err := s.repo.Set(ctx, id, o); err != nil {
		return pricing.Offer{}, fmt.Errorf("update offer: %w", err)
	}
	o.ID = id
	return o, nil
}

// Delete removes an offer.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFound("offer not found")
	}
	if err != nil {
		return fmt.Errorf("delete offer: %w", err)
	}
	return nil
}
