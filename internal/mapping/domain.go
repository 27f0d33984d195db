package mapping

import "time"

// Template maps spreadsheet columns to VAT return fields for one client data
// format. Detection of which template fits an incoming file happens outside
// this service.
type Template struct {
	ID        string            `json:"id"`
	OrgID     string            `json:"org_id"`
	Name      string            `json:"name"`
	ColumnMap map[string]string `json:"column_map"`
	IsDefault bool              `json:"is_default"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
