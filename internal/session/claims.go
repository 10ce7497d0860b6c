package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are read from the token payload without verifying the signature.
// The backend owns verification; these values are for display and form prefill only.
type Claims struct {
	UserID     int64  `json:"userId"`
	ClientID   int64  `json:"clientId"`
	EmployeeID int64  `json:"employeeId"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

func DecodeClaims(token string) (*Claims, error) {
	c := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, c); err != nil {
		return nil, fmt.Errorf("decode token claims: %w", err)
	}
	return c, nil
}

// IDFor picks the role specific id, falling back to the generic userId claim.
func (c *Claims) IDFor(role Role) int64 {
	switch role {
	case RoleClient:
		if c.ClientID != 0 {
			return c.ClientID
		}
	case RoleEmployee:
		if c.EmployeeID != 0 {
			return c.EmployeeID
		}
	default:
		return 0
	}
	return c.UserID
}
