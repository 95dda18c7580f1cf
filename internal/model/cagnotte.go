package model

import (
	"fmt"
	"time"
)

// Cagnotte statuses. A pot is created pending_validation, goes online
// after admin review and leaves the online state either through
// rejection, a documents request, or the organizer asking to withdraw
// the collected funds.
const (
	CagnottePendingValidation = "pending_validation"
	CagnotteOnline            = "online"
	CagnotteRejected          = "rejected"
	CagnottePendingDocuments  = "pending_documents"
	CagnottePendingPayout     = "pending_payout"
	CagnotteCompleted         = "completed"
)

// Contribution statuses. Contributions are created pending and flipped
// to completed by an out-of-band payment confirmation; only completed
// contributions count toward the displayed collected total.
const (
	ContributionPending   = "pending"
	ContributionCompleted = "completed"
)

// Cagnotte represents a row in the `cagnottes` table: a crowd-funding
// pot run by an organizer, independent of ticket inventory.
type Cagnotte struct {
	ID              uint64    // cagnottes.id
	OrganizerID     uint64    // cagnottes.organizer_id
	Title           string    // cagnottes.title
	Description     string    // cagnottes.description
	Goal            int64     // cagnottes.goal (0 = open-ended)
	MinContribution int64     // cagnottes.min_contribution
	Status          string    // cagnottes.status
	CreatedAt       time.Time // cagnottes.created_at
	UpdatedAt       time.Time // cagnottes.updated_at
}

// CagnotteContribution represents a row in `cagnotte_contributions`.
type CagnotteContribution struct {
	ID          uint64    // cagnotte_contributions.id
	CagnotteID  uint64    // cagnotte_contributions.cagnotte_id
	Name        string    // cagnotte_contributions.name
	Email       string    // cagnotte_contributions.email
	Amount      int64     // cagnotte_contributions.amount
	Status      string    // cagnotte_contributions.status
	Message     string    // cagnotte_contributions.message
	Anonymous   bool      // cagnotte_contributions.anonymous
	CreatedAt   time.Time // cagnotte_contributions.created_at
}

// DisplayName returns the contributor name as shown on public pages,
// masking it when the contributor asked to stay anonymous.
func (c CagnotteContribution) DisplayName() string {
	if c.Anonymous || c.Name == "" {
		return "Anonyme"
	}
	return c.Name
}

// CanContribute reports whether the pot accepts a contribution of the
// given amount right now.
func (g Cagnotte) CanContribute(amount int64) error {
	if g.Status != CagnotteOnline {
		return fmt.Errorf("cagnotte is not open for contributions (status %s)", g.Status)
	}
	if amount < g.MinContribution {
		return fmt.Errorf("minimum contribution is %d", g.MinContribution)
	}
	if amount <= 0 {
		return fmt.Errorf("contribution amount must be positive")
	}
	return nil
}

// CanRequestPayout reports whether the organizer may withdraw the pot,
// given the collected (completed-only) total.
func (g Cagnotte) CanRequestPayout(collected int64) error {
	if g.Status != CagnotteOnline {
		return fmt.Errorf("cagnotte must be online to request a payout (status %s)", g.Status)
	}
	if collected <= 0 {
		return fmt.Errorf("nothing collected yet")
	}
	return nil
}

// cagnotteNext maps each cagnotte status to its admin-reachable
// successors. request-payout (online -> pending_payout) is the one
// organizer-driven edge and is handled separately.
var cagnotteNext = map[string][]string{
	CagnottePendingValidation: {CagnotteOnline, CagnotteRejected, CagnottePendingDocuments},
	CagnottePendingDocuments:  {CagnotteOnline, CagnotteRejected},
	CagnotteOnline:            {CagnotteRejected, CagnottePendingDocuments, CagnottePendingPayout},
	CagnottePendingPayout:     {CagnotteCompleted},
	CagnotteRejected:          {},
	CagnotteCompleted:         {},
}

// CanTransitionCagnotte returns nil when an admin may move a cagnotte
// from `from` to `to`, or a descriptive error otherwise.
func CanTransitionCagnotte(from, to string) error {
	allowed, ok := cagnotteNext[from]
	if !ok {
		return fmt.Errorf("unknown cagnotte status %q", from)
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return fmt.Errorf("cagnotte cannot move from %s to %s", from, to)
}
