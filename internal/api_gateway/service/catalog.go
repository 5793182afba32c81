package service

import "errors"

// Pricing constants, minor units. The client never supplies a total; every
// order is repriced here before the provider sees it.
const (
	taxRatePercent = 8
	shippingFee    = 1400
)

// Common errors
var (
	ErrEmptyOrder      = errors.New("order must contain at least one item")
	ErrInvalidQuantity = errors.New("item quantity must be positive")
)

// ErrUnknownPlan indicates a checkout item referencing no catalog entry
type ErrUnknownPlan struct {
	PlanID string
}

func (e ErrUnknownPlan) Error() string {
	return "unknown plan: " + e.PlanID
}

// Is implements the errors.Is interface for ErrUnknownPlan
func (e ErrUnknownPlan) Is(target error) bool {
	t, ok := target.(ErrUnknownPlan)
	if !ok {
		return false
	}
	if t.PlanID == "" {
		return true
	}
	return e.PlanID == t.PlanID
}

// Plan is one purchasable catalog entry
type Plan struct {
	ID        string
	Name      string
	UnitPrice int64 // Minor units
}

// Catalog holds the server-side price list. Prices live here and nowhere
// else; client-supplied amounts are ignored entirely.
type Catalog struct {
	currency string
	plans    map[string]Plan
}

// NewCatalog creates a catalog with the given plans
func NewCatalog(currency string, plans []Plan) *Catalog {
	byID := make(map[string]Plan, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
	}
	return &Catalog{currency: currency, plans: byID}
}

// DefaultCatalog returns the built-in plan list
func DefaultCatalog() *Catalog {
	return NewCatalog("USD", []Plan{
		{ID: "starter-monthly", Name: "Starter (monthly)", UnitPrice: 900},
		{ID: "pro-monthly", Name: "Pro (monthly)", UnitPrice: 2900},
		{ID: "pro-yearly", Name: "Pro (yearly)", UnitPrice: 29900},
		{ID: "team-monthly", Name: "Team (monthly)", UnitPrice: 9900},
	})
}

// Currency returns the catalog's settlement currency
func (c *Catalog) Currency() string {
	return c.currency
}

// Lookup returns the plan for an id, and whether it exists
func (c *Catalog) Lookup(planID string) (Plan, bool) {
	p, ok := c.plans[planID]
	return p, ok
}

// PriceOrder recomputes the order total: per-item subtotal, then tax, then a
// flat shipping fee on top.
func (c *Catalog) PriceOrder(items []CheckoutItem) (int64, error) {
	if len(items) == 0 {
		return 0, ErrEmptyOrder
	}

	var subtotal int64
	for _, item := range items {
		plan, ok := c.plans[item.PlanID]
		if !ok {
			return 0, ErrUnknownPlan{PlanID: item.PlanID}
		}
		if item.Quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		subtotal += plan.UnitPrice * int64(item.Quantity)
	}

	tax := subtotal * taxRatePercent / 100
	return subtotal + tax + shippingFee, nil
}
