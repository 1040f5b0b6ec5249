// Package notify builds the payment instructions sent to shoppers. The store
// confirms external payments over WhatsApp, so an instruction is a wa.me deep
// link with a prefilled message; nothing is delivered from here.
package notify

import (
	"fmt"
	"net/url"
	"strings"

	"storefront/internal/money"

	"github.com/shopspring/decimal"
)

type Linker struct {
	number string
}

// NewLinker keeps only the digits of the store's WhatsApp number.
func NewLinker(number string) *Linker {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return &Linker{number: b.String()}
}

// Link returns https://wa.me/<number>?text=<message> with the message percent-encoded.
func (l *Linker) Link(message string) string {
	return "https://wa.me/" + l.number + "?text=" + escape(message)
}

// Recipient is who an order line is delivered to (game account, phone, handle).
type Recipient struct {
	ID   string
	Name string
}

type OrderMessage struct {
	Username   string
	OrderID    string
	Total      decimal.Decimal
	Recipients []Recipient
}

// Order lists every distinct non-empty recipient, in the order given.
func (l *Linker) Order(m OrderMessage) string {
	msg := fmt.Sprintf("Hola! Soy %s. Quiero pagar el pedido #%s por $%s.", m.Username, m.OrderID, money.String(m.Total))
	seen := make(map[Recipient]bool, len(m.Recipients))
	var parts []string
	for _, r := range m.Recipients {
		if (r.ID == "" && r.Name == "") || seen[r] {
			continue
		}
		seen[r] = true
		parts = append(parts, fmt.Sprintf("ID: %s - Nombre: %s", r.ID, r.Name))
	}
	if len(parts) > 0 {
		msg += " " + strings.Join(parts, " | ")
	}
	return l.Link(msg)
}

type TopUpMessage struct {
	Username string
	TopUpID  string
	Amount   decimal.Decimal
	Method   string
	ProofURL string
}

func (l *Linker) TopUp(m TopUpMessage) string {
	msg := fmt.Sprintf("Hola! Soy %s. Envié una recarga de $%s por %s. ID: %s.", m.Username, money.String(m.Amount), m.Method, m.TopUpID)
	if m.ProofURL != "" {
		msg += " Comprobante: " + m.ProofURL
	}
	return l.Link(msg)
}

// escape percent-encodes for a query value, with spaces as %20 rather than '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
