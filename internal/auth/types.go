package auth

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Principal is an authenticated identity supplied by the token verifier.
// It is built once per request and never mutated afterwards.
type Principal struct {
	ID     string
	Roles  []string
	Active bool
}

// RoleTags holds one or many raw role tags. Tokens may carry the tag as a
// single string or as an array; both decode into the same normalized list.
type RoleTags []string

func (r *RoleTags) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*r = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return fmt.Errorf("decode role tag: %w", err)
		}
		*r = normalizeRoles([]string{single})
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("decode role tags: %w", err)
	}
	*r = normalizeRoles(many)
	return nil
}

// normalizeRoles lower-cases, trims and de-duplicates role tags, keeping
// first-seen order.
func normalizeRoles(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(roles))
	var normalized []string
	for _, role := range roles {
		role = strings.TrimSpace(strings.ToLower(role))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		normalized = append(normalized, role)
	}
	return normalized
}

// NewPrincipal builds a principal with normalized role tags.
func NewPrincipal(id string, roles []string, active bool) Principal {
	return Principal{
		ID:     strings.TrimSpace(id),
		Roles:  normalizeRoles(roles),
		Active: active,
	}
}
