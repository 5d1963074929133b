package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const maxTicketTiers = 10

// TicketTier describes one kind of ticket on offer. Sales are handled elsewhere.
type TicketTier struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

func normalizeTiers(in []TicketTier) ([]TicketTier, error) {
	if len(in) > maxTicketTiers {
		return nil, ErrValidationMeta("too many ticket tiers", map[string]string{
			"tickets": "maximum 10 ticket tiers allowed",
		})
	}
	out := make([]TicketTier, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		name := strings.TrimSpace(t.Name)
		if name == "" || len(name) > 60 {
			return nil, ErrValidation("ticket name is required and must be <= 60 chars")
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, ErrValidationMeta("duplicate ticket tier", map[string]string{"tickets": name})
		}
		seen[key] = struct{}{}
		if t.Price.IsNegative() {
			return nil, ErrValidation("ticket price must be >= 0")
		}
		if t.Quantity <= 0 {
			return nil, ErrValidation("ticket quantity must be > 0")
		}
		out = append(out, TicketTier{
			Name:     name,
			Price:    t.Price.Round(2),
			Quantity: t.Quantity,
		})
	}
	return out, nil
}

// TotalTickets is the sum of all tier quantities.
func TotalTickets(tiers []TicketTier) int {
	n := 0
	for _, t := range tiers {
		n += t.Quantity
	}
	return n
}
