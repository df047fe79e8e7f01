package models

import (
	"fmt"
	"strings"
)

// Role defines which console a client is running.
type Role string

const (
	RoleHost Role = "host"
	RoleTeam Role = "team"
)

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleHost:
		return RoleHost, nil
	case RoleTeam:
		return RoleTeam, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// TeamRef identifies a team as the server describes it in snapshots.
type TeamRef struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}
