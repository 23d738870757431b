package shippo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// EventTrackUpdated is the webhook event Shippo sends on tracking changes.
const EventTrackUpdated = "track_updated"

var ErrNoRates = errors.New("no shipping rates returned")

type Client struct {
	baseURL        string
	apiKey         string
	fromAddressID  string
	parcelTemplate string
	httpClient     *http.Client
}

type Address struct {
	Name    string `json:"name"`
	Street1 string `json:"street1"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
}

type Parcel struct {
	Template string `json:"template,omitempty"`
	Weight   string `json:"weight"`
	MassUnit string `json:"mass_unit"`
}

type shipmentIn struct {
	AddressFrom string   `json:"address_from"`
	AddressTo   Address  `json:"address_to"`
	Parcels     []Parcel `json:"parcels"`
	Async       bool     `json:"async"`
}

type Rate struct {
	ObjectID string `json:"object_id"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	Provider string `json:"provider"`
	Service  struct {
		Name  string `json:"name"`
		Token string `json:"token"`
	} `json:"servicelevel"`
}

type ShipmentOut struct {
	ObjectID string `json:"object_id"`
	Status   string `json:"status"`
	Rates    []Rate `json:"rates"`
}

type transactionIn struct {
	Rate          string `json:"rate"`
	LabelFileType string `json:"label_file_type"`
	Async         bool   `json:"async"`
}

type Message struct {
	Source string `json:"source"`
	Code   string `json:"code"`
	Text   string `json:"text"`
}

type TransactionOut struct {
	ObjectID       string    `json:"object_id"`
	Status         string    `json:"status"`
	LabelURL       string    `json:"label_url"`
	TrackingNumber string    `json:"tracking_number"`
	TrackingStatus string    `json:"tracking_status"`
	Messages       []Message `json:"messages"`
}

// Label is a purchased shipping label.
type Label struct {
	LabelURL       string
	TrackingNumber string
	Carrier        string
	Status         string
}

// TrackingEvent is the body of a Shippo tracking webhook.
type TrackingEvent struct {
	Event string `json:"event"`
	Data  struct {
		TrackingNumber string `json:"tracking_number"`
		Carrier        string `json:"carrier"`
		TrackingStatus struct {
			Status        string `json:"status"`
			StatusDetails string `json:"status_details"`
		} `json:"tracking_status"`
	} `json:"data"`
}

func NewClient(baseURL, apiKey, fromAddressID, parcelTemplate string) *Client {
	return &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		apiKey:         apiKey,
		fromAddressID:  fromAddressID,
		parcelTemplate: parcelTemplate,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Configured() bool {
	return c != nil && c.apiKey != "" && c.fromAddressID != ""
}

// PurchaseLabel rates a single-parcel shipment and buys the cheapest rate.
func (c *Client) PurchaseLabel(ctx context.Context, to Address, weightOz int) (*Label, error) {
	if weightOz <= 0 {
		weightOz = 8
	}

	shipment, err := c.createShipment(ctx, shipmentIn{
		AddressFrom: c.fromAddressID,
		AddressTo:   to,
		Parcels: []Parcel{{
			Template: c.parcelTemplate,
			Weight:   strconv.Itoa(weightOz),
			MassUnit: "oz",
		}},
		Async: false,
	})
	if err != nil {
		return nil, err
	}

	rate, err := CheapestRate(shipment.Rates)
	if err != nil {
		return nil, err
	}

	var tx TransactionOut
	if err := c.do(ctx, http.MethodPost, "/transactions/", transactionIn{
		Rate:          rate.ObjectID,
		LabelFileType: "PDF_4x6",
		Async:         false,
	}, &tx); err != nil {
		return nil, fmt.Errorf("failed to purchase label: %w", err)
	}

	if tx.Status != "SUCCESS" {
		texts := make([]string, 0, len(tx.Messages))
		for _, m := range tx.Messages {
			texts = append(texts, m.Text)
		}
		return nil, fmt.Errorf("label purchase %s: %s", strings.ToLower(tx.Status), strings.Join(texts, "; "))
	}

	status := tx.TrackingStatus
	if status == "" {
		status = "PRE_TRANSIT"
	}
	return &Label{
		LabelURL:       tx.LabelURL,
		TrackingNumber: tx.TrackingNumber,
		Carrier:        strings.ToLower(rate.Provider),
		Status:         status,
	}, nil
}

func (c *Client) createShipment(ctx context.Context, in shipmentIn) (*ShipmentOut, error) {
	var out ShipmentOut
	if err := c.do(ctx, http.MethodPost, "/shipments/", in, &out); err != nil {
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}
	return &out, nil
}

// CheapestRate picks the lowest priced rate.
func CheapestRate(rates []Rate) (*Rate, error) {
	var best *Rate
	bestAmount := 0.0
	for i := range rates {
		amount, err := strconv.ParseFloat(rates[i].Amount, 64)
		if err != nil {
			continue
		}
		if best == nil || amount < bestAmount {
			best = &rates[i]
			bestAmount = amount
		}
	}
	if best == nil {
		return nil, ErrNoRates
	}
	return best, nil
}

// ParseTrackingEvent decodes a tracking webhook body.
func ParseTrackingEvent(body []byte) (*TrackingEvent, error) {
	var event TrackingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("failed to decode tracking event: %w", err)
	}
	return &event, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "ShippoToken "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
		}
	}
	return nil
}
