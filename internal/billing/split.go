package billing

import "github.com/mesaviva/pos-payments-terminal/internal/models"

// Bounds on the number of people a bill can be split across.
const (
	MinPeople = 2
	MaxPeople = 20
)

// ItemKey identifies a line item uniquely across all orders on an
// account (line item ids are only unique within their order).
type ItemKey struct {
	OrderID string
	ItemID  string
}

// SplitPlan maps line items to at most one person each. It is a live
// preview: the POS core recomputes per-division subtotal, tax and total
// when the plan is submitted.
type SplitPlan struct {
	PersonCount int

	assignments map[ItemKey]int
}

// NewSplitPlan creates an empty plan for the given number of people,
// clamped to the allowed range.
func NewSplitPlan(people int) *SplitPlan {
	return &SplitPlan{
		PersonCount: ClampPeople(people),
		assignments: make(map[ItemKey]int),
	}
}

// ClampPeople bounds a requested person count to [MinPeople, MaxPeople].
func ClampPeople(n int) int {
	if n < MinPeople {
		return MinPeople
	}
	if n > MaxPeople {
		return MaxPeople
	}
	return n
}

// SetPersonCount resizes the plan. All existing assignments are
// discarded; the operator reassigns from scratch.
func (p *SplitPlan) SetPersonCount(n int) {
	p.PersonCount = ClampPeople(n)
	p.assignments = make(map[ItemKey]int)
}

// Assign gives the item to a person. If the item already belongs to a
// different person that assignment is silently revoked, keeping the
// at-most-one-owner invariant. Reassigning to the same person is a no-op.
func (p *SplitPlan) Assign(key ItemKey, person int) {
	if person < 0 || person >= p.PersonCount {
		return
	}
	p.assignments[key] = person
}

// Unassign removes any assignment for the item.
func (p *SplitPlan) Unassign(key ItemKey) {
	delete(p.assignments, key)
}

// Owner returns the person an item is assigned to, if any.
func (p *SplitPlan) Owner(key ItemKey) (int, bool) {
	person, ok := p.assignments[key]
	return person, ok
}

// AssignedCount returns the number of items with an owner.
func (p *SplitPlan) AssignedCount() int {
	return len(p.assignments)
}

// PersonTotal sums the line subtotals currently assigned to a person.
// This is the live preview shown while assigning; the committed figures
// come from the POS core's split result.
func (p *SplitPlan) PersonTotal(account *models.AccountSnapshot, person int) float64 {
	if account == nil {
		return 0
	}
	total := 0.0
	for _, order := range account.Orders {
		for _, item := range order.Items {
			if owner, ok := p.assignments[ItemKey{OrderID: order.ID, ItemID: item.ItemID}]; ok && owner == person {
				total += item.Subtotal
			}
		}
	}
	return total
}

// UnassignedCount returns how many of the account's line items have no
// owner. The operator is warned with this count before a partial split
// is submitted.
func (p *SplitPlan) UnassignedCount(account *models.AccountSnapshot) int {
	if account == nil {
		return 0
	}
	unassigned := 0
	for _, order := range account.Orders {
		for _, item := range order.Items {
			if _, ok := p.assignments[ItemKey{OrderID: order.ID, ItemID: item.ItemID}]; !ok {
				unassigned++
			}
		}
	}
	return unassigned
}

// BuildDivisions produces the ordered, non-empty divisions to submit to
// the POS core. Persons with no assigned items are omitted. An empty
// result means nothing was assigned and the submission must be rejected
// before any network call.
func (p *SplitPlan) BuildDivisions(account *models.AccountSnapshot) []models.Division {
	if account == nil {
		return nil
	}

	divisions := make([]models.Division, 0, p.PersonCount)
	for person := 0; person < p.PersonCount; person++ {
		var items []models.SplitItem
		for _, order := range account.Orders {
			for _, item := range order.Items {
				key := ItemKey{OrderID: order.ID, ItemID: item.ItemID}
				if owner, ok := p.assignments[key]; ok && owner == person {
					items = append(items, models.SplitItem{
						ItemID:   item.ItemID,
						OrderID:  order.ID,
						Subtotal: item.Subtotal,
					})
				}
			}
		}
		if len(items) > 0 {
			divisions = append(divisions, models.Division{Items: items})
		}
	}

	return divisions
}
