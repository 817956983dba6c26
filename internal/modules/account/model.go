// README: Role-tagged user record with per-role profile fields.
package account

import (
	"time"

	"freightgo/internal/types"
)

type Role string

const (
	RoleClient Role = "client"
	RoleDriver Role = "driver"
	RoleOwner  Role = "owner"
)

// User is a single record for every actor; the role selects which profile
// fields are meaningful.
type User struct {
	ID        types.ID
	Role      Role
	Name      string
	Phone     string
	CreatedAt time.Time

	// Client profile
	CompletedOrders int

	// Driver profile
	LicenseNumber string
	CompletedJobs int

	// Owner profile
	Company string

	// Running average over this user's rated jobs, 2 decimals, 0 when unrated.
	Rating float64
}
