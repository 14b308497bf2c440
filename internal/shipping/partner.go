package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mobigear/backend-parts/internal/resilience"
	"github.com/mobigear/backend-parts/internal/store"
)

// PartnerClient implements Provider against the shipping aggregator's
// REST API.
type PartnerClient struct {
	BaseURL string
	APIKey  string
	HTTP    resilience.HTTPClient
}

type partnerShipmentReq struct {
	OrderID   string        `json:"orderId"`
	Address   store.Address `json:"address"`
	COD       bool          `json:"cod"`
	CODAmount float64       `json:"codAmount,omitempty"`
	Express   bool          `json:"express,omitempty"`
}

type partnerShipmentResp struct {
	TrackingID string `json:"trackingId"`
	Courier    string `json:"courier"`
	LabelURL   string `json:"labelUrl"`
}

// CreateShipment registers the order with the partner and returns the
// assigned tracking handle.
func (c PartnerClient) CreateShipment(ctx context.Context, req ShipmentReq) (Shipment, error) {
	if strings.TrimSpace(req.OrderID) == "" {
		return Shipment{}, errors.New("order id is required")
	}
	body, err := json.Marshal(partnerShipmentReq{
		OrderID:   req.OrderID,
		Address:   req.Address,
		COD:       req.COD,
		CODAmount: req.CODAmount,
		Express:   req.Express,
	})
	if err != nil {
		return Shipment{}, err
	}
	resp, err := c.do(ctx, http.MethodPost, "/shipments", body)
	if err != nil {
		return Shipment{}, fmt.Errorf("partner create shipment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Shipment{}, fmt.Errorf("partner create shipment: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	var out partnerShipmentResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Shipment{}, fmt.Errorf("partner decode shipment: %w", err)
	}
	if out.TrackingID == "" {
		return Shipment{}, errors.New("partner returned an empty tracking id")
	}
	return Shipment{TrackingID: out.TrackingID, Courier: out.Courier, LabelURL: out.LabelURL}, nil
}

// Track fetches the event history for one shipment.
func (c PartnerClient) Track(ctx context.Context, trackingID string) ([]TrackEvent, error) {
	if strings.TrimSpace(trackingID) == "" {
		return nil, errors.New("tracking id is required")
	}
	resp, err := c.do(ctx, http.MethodGet, "/shipments/"+trackingID+"/events", nil)
	if err != nil {
		return nil, fmt.Errorf("partner track: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("partner track: status %d", resp.StatusCode)
	}
	var out struct {
		Events []struct {
			Status      string `json:"status"`
			Description string `json:"description"`
			Location    string `json:"location"`
			OccurredAt  int64  `json:"occurredAt"`
		} `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("partner decode events: %w", err)
	}
	events := make([]TrackEvent, 0, len(out.Events))
	for _, e := range out.Events {
		events = append(events, TrackEvent{
			Status:      e.Status,
			Description: e.Description,
			Location:    e.Location,
			OccurredAt:  e.OccurredAt,
		})
	}
	return events, nil
}

func (c PartnerClient) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.HTTP.Do(ctx, req)
}
