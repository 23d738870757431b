package payments

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"decant-boutique-backend/internal/models"
)

// Checkout session metadata keys.
const (
	MetaCart         = "cart"
	MetaBuyerName    = "buyer_name"
	MetaBuyerEmail   = "buyer_email"
	MetaBuyerPhone   = "buyer_phone"
	MetaShipLine1    = "ship_line1"
	MetaShipLine2    = "ship_line2"
	MetaShipCity     = "ship_city"
	MetaShipState    = "ship_state"
	MetaShipPostal   = "ship_postal_code"
	MetaShipCountry  = "ship_country"
	MetaDiscountCode = "discount_code"

	MetaDecantID    = "decant_id"
	MetaFragranceID = "fragrance_id"
)

// Stripe rejects metadata values longer than this.
const MaxMetadataValue = 500

type snapshotLine struct {
	DecantID    string `json:"d,omitempty"`
	FragranceID string `json:"f,omitempty"`
	Name        string `json:"n,omitempty"`
	Quantity    int64  `json:"q"`
	UnitAmount  int64  `json:"a"`
	Currency    string `json:"c,omitempty"`
}

// EncodeCartSnapshot packs the lines into a compact JSON value that fits a
// single metadata entry. Names are dropped first when the full form is too
// long; ok is false when even the short form does not fit.
func EncodeCartSnapshot(lines []CheckoutLine) (value string, ok bool) {
	for _, withNames := range []bool{true, false} {
		snapshot := make([]snapshotLine, len(lines))
		for i, l := range lines {
			s := snapshotLine{Quantity: l.Quantity, UnitAmount: l.UnitAmount, Currency: l.Currency}
			if l.DecantID != nil {
				s.DecantID = l.DecantID.String()
			}
			if l.FragranceID != nil {
				s.FragranceID = l.FragranceID.String()
			}
			if withNames {
				s.Name = l.Name
			}
			snapshot[i] = s
		}
		data, err := json.Marshal(snapshot)
		if err == nil && len(data) <= MaxMetadataValue {
			return string(data), true
		}
	}
	return "", false
}

// DecodeCartSnapshot is the inverse of EncodeCartSnapshot.
func DecodeCartSnapshot(value string) ([]LineItem, error) {
	if strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("empty cart snapshot")
	}

	var snapshot []snapshotLine
	if err := json.Unmarshal([]byte(value), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode cart snapshot: %w", err)
	}

	items := make([]LineItem, 0, len(snapshot))
	for _, s := range snapshot {
		item := LineItem{
			Name:        s.Name,
			Quantity:    s.Quantity,
			UnitAmount:  s.UnitAmount,
			AmountTotal: s.Quantity * s.UnitAmount,
			Currency:    s.Currency,
			DecantID:    parseOptionalUUID(s.DecantID),
			FragranceID: parseOptionalUUID(s.FragranceID),
		}
		if item.Name == "" {
			item.Name = "Decant"
		}
		items = append(items, item)
	}
	return items, nil
}

func parseOptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// BuyerMetadata flattens the buyer into metadata entries, skipping blanks.
func BuyerMetadata(b models.Buyer) map[string]string {
	md := map[string]string{}
	set := func(key, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		md[key] = truncate(value, MaxMetadataValue)
	}
	set(MetaBuyerName, b.Name)
	set(MetaBuyerEmail, b.Email)
	set(MetaBuyerPhone, b.Phone)
	set(MetaShipLine1, b.Address.Line1)
	set(MetaShipLine2, b.Address.Line2)
	set(MetaShipCity, b.Address.City)
	set(MetaShipState, b.Address.State)
	set(MetaShipPostal, b.Address.PostalCode)
	set(MetaShipCountry, b.Address.Country)
	return md
}

func BuyerFromMetadata(md map[string]string) models.Buyer {
	return models.Buyer{
		Name:  md[MetaBuyerName],
		Email: md[MetaBuyerEmail],
		Phone: md[MetaBuyerPhone],
		Address: models.ShippingAddress{
			Name:       md[MetaBuyerName],
			Line1:      md[MetaShipLine1],
			Line2:      md[MetaShipLine2],
			City:       md[MetaShipCity],
			State:      md[MetaShipState],
			PostalCode: md[MetaShipPostal],
			Country:    md[MetaShipCountry],
		},
	}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
