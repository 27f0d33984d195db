package auth

// Identity is the verified caller identity extracted from a bearer token,
// before the authoritative user record has been consulted. Claim hints are
// fallback only; the user record wins during resolution.
type Identity struct {
	ID      string
	Email   string
	TokenID string
	Claims  map[string]any
}

// OrgHint returns the organization id embedded in the token claims, checking
// the claim names used across schema iterations, newest first.
func (id Identity) OrgHint() string {
	for _, key := range []string{"org_id", "organization_id", "tenant_id"} {
		if v, ok := id.Claims[key].(string); ok && v != "" {
			return v
		}
	}
	if meta, ok := id.Claims["app_metadata"].(map[string]any); ok {
		for _, key := range []string{"organization_id", "tenant_id"} {
			if v, ok := meta[key].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}

// RoleHint returns the role embedded in the token claims, "" when absent.
func (id Identity) RoleHint() string {
	if v, ok := id.Claims["role"].(string); ok {
		return v
	}
	if meta, ok := id.Claims["app_metadata"].(map[string]any); ok {
		if v, ok := meta["role"].(string); ok {
			return v
		}
	}
	return ""
}
