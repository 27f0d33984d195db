package clients

import "time"

// TaxablePeriod is the filing cadence for a client.
type TaxablePeriod string

const (
	PeriodMonthly   TaxablePeriod = "MONTHLY"
	PeriodQuarterly TaxablePeriod = "QUARTERLY"
)

// Status values for a client engagement.
const (
	StatusActive    = "ACTIVE"
	StatusInactive  = "INACTIVE"
	StatusSuspended = "SUSPENDED"
)

// Client is a VAT-registered business the organization files returns for.
type Client struct {
	ID            string        `json:"id"`
	OrgID         string        `json:"org_id"`
	Name          string        `json:"name"`
	TIN           string        `json:"tin"`
	VATNumber     string        `json:"vat_number"`
	TaxablePeriod TaxablePeriod `json:"taxable_period"`
	ContactEmail  string        `json:"contact_email"`
	Status        string        `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ListFilter narrows a client listing. The organization predicate is always
// injected by the data-access layer and is not part of the filter.
type ListFilter struct {
	Status string
	Period TaxablePeriod
	Page   int
	Per    int
}
