// Package branding manages per-organization white-label settings served to
// the client portal.
package branding

import "time"

// Branding is one organization's white-label configuration. Logo and favicon
// are URLs into external blob storage; the blobs never pass through here.
type Branding struct {
	ID             string            `json:"id"`
	OrgID          string            `json:"org_id"`
	CompanyName    string            `json:"company_name,omitempty"`
	CompanyWebsite string            `json:"company_website,omitempty"`
	SupportEmail   string            `json:"support_email,omitempty"`
	SupportPhone   string            `json:"support_phone,omitempty"`
	Colors         map[string]string `json:"colors,omitempty"`
	FooterText     string            `json:"footer_text,omitempty"`
	LogoURL        string            `json:"logo_url,omitempty"`
	FaviconURL     string            `json:"favicon_url,omitempty"`
	Enabled        bool              `json:"enabled"`
	UpdatedAt      time.Time         `json:"updated_at"`
}
