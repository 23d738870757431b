// Package notify sends order emails through Resend.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"

	"decant-boutique-backend/internal/models"
)

type Mailer struct {
	client     *resend.Client
	from       string
	adminEmail string
	siteURL    string
}

func NewMailer(apiKey, from, adminEmail, siteURL string) *Mailer {
	m := &Mailer{
		from:       from,
		adminEmail: adminEmail,
		siteURL:    strings.TrimSuffix(siteURL, "/"),
	}
	if apiKey != "" {
		m.client = resend.NewClient(apiKey)
	}
	return m
}

func (m *Mailer) Enabled() bool {
	return m != nil && m.client != nil
}

// SendAdminSummary emails the store owner a summary of a paid order.
func (m *Mailer) SendAdminSummary(ctx context.Context, order *models.Order) error {
	if !m.Enabled() {
		return fmt.Errorf("email is not configured")
	}
	if m.adminEmail == "" {
		return fmt.Errorf("admin email is not configured")
	}

	subject, body, err := RenderAdminSummary(order, m.siteURL)
	if err != nil {
		return err
	}
	return m.send(ctx, m.adminEmail, subject, body)
}

// SendBuyerConfirmation emails the buyer an order confirmation.
func (m *Mailer) SendBuyerConfirmation(ctx context.Context, order *models.Order) error {
	if !m.Enabled() {
		return fmt.Errorf("email is not configured")
	}
	if order.CustomerEmail == "" {
		return fmt.Errorf("order %s has no buyer email", order.ID)
	}

	subject, body, err := RenderBuyerConfirmation(order)
	if err != nil {
		return err
	}
	return m.send(ctx, order.CustomerEmail, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, html string) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

// FormatMoney renders minor units as a major-unit amount, e.g. 1250 usd -> "$12.50".
func FormatMoney(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	switch strings.ToLower(currency) {
	case "", "usd":
		return "$" + amount
	case "eur":
		return "€" + amount
	case "gbp":
		return "£" + amount
	default:
		return amount + " " + strings.ToUpper(currency)
	}
}

type lineView struct {
	Name     string
	Quantity int64
	Unit     string
	Total    string
}

type orderView struct {
	Order    *models.Order
	Lines    []lineView
	Subtotal string
	Total    string
	Shipping models.ShippingAddress
	AdminURL string
}

func newOrderView(order *models.Order, siteURL string) orderView {
	view := orderView{
		Order:    order,
		Subtotal: FormatMoney(order.AmountSubtotal, order.Currency),
		Total:    FormatMoney(order.AmountTotal, order.Currency),
		Shipping: order.Shipping,
	}
	for _, li := range order.LineItems {
		currency := li.Currency
		if currency == "" {
			currency = order.Currency
		}
		view.Lines = append(view.Lines, lineView{
			Name:     li.Name,
			Quantity: li.Quantity,
			Unit:     FormatMoney(li.UnitAmount, currency),
			Total:    FormatMoney(li.UnitAmount*li.Quantity, currency),
		})
	}
	if siteURL != "" {
		view.AdminURL = siteURL + "/admin/orders/" + order.ID.String()
	}
	return view
}

var adminTemplate = template.Must(template.New("admin").Parse(`<h2>New order</h2>
<p>{{.Order.CustomerName}} &lt;{{.Order.CustomerEmail}}&gt;{{if .Order.CustomerPhone}} · {{.Order.CustomerPhone}}{{end}}</p>
<table>
{{range .Lines}}<tr><td>{{.Name}}</td><td>× {{.Quantity}}</td><td>{{.Unit}}</td><td>{{.Total}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal}}<br>Total: <strong>{{.Total}}</strong></p>
{{if .Order.DiscountCode}}<p>Discount code: {{.Order.DiscountCode}}</p>{{end}}
{{with .Shipping}}<p>Ship to:<br>{{.Name}}<br>{{.Line1}}{{if .Line2}}<br>{{.Line2}}{{end}}<br>{{.City}}, {{.State}} {{.PostalCode}}<br>{{.Country}}</p>{{end}}
{{if .AdminURL}}<p><a href="{{.AdminURL}}">Open in admin</a></p>{{end}}`))

var buyerTemplate = template.Must(template.New("buyer").Parse(`<h2>Thank you for your order{{if .Order.CustomerName}}, {{.Order.CustomerName}}{{end}}!</h2>
<p>We've received your payment and will ship your decants soon.</p>
<table>
{{range .Lines}}<tr><td>{{.Name}}</td><td>× {{.Quantity}}</td><td>{{.Total}}</td></tr>
{{end}}</table>
<p>Total paid: <strong>{{.Total}}</strong></p>`))

func RenderAdminSummary(order *models.Order, siteURL string) (string, string, error) {
	var buf bytes.Buffer
	if err := adminTemplate.Execute(&buf, newOrderView(order, siteURL)); err != nil {
		return "", "", fmt.Errorf("failed to render admin email: %w", err)
	}
	subject := fmt.Sprintf("New order: %d item(s), %s", order.ItemCount(), FormatMoney(order.AmountTotal, order.Currency))
	return subject, buf.String(), nil
}

func RenderBuyerConfirmation(order *models.Order) (string, string, error) {
	var buf bytes.Buffer
	if err := buyerTemplate.Execute(&buf, newOrderView(order, "")); err != nil {
		return "", "", fmt.Errorf("failed to render confirmation email: %w", err)
	}
	return "Your order is confirmed", buf.String(), nil
}
