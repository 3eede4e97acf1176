package caregivers

import "time"

type Scope string

const (
	ScopeAnimalRead            Scope = "animal:read"
	ScopeAnimalEditProfile     Scope = "animal:edit_profile"
	ScopeRegimensManage        Scope = "regimens:manage"
	ScopeAdministrationsCreate Scope = "administrations:create"
	ScopeAdministrationsCosign Scope = "administrations:cosign"
	ScopeInventoryWrite        Scope = "inventory:write"
)

type Status string

const (
	StatusInvited Status = "invited"
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Grant comparte un animal con un cuidador fuera del hogar.
type Grant struct {
	ID string

	AnimalID    string
	HouseholdID string

	OwnerUserID   string // quien comparte
	GranteeUserID string // cuidador

	Scopes []Scope
	Status Status

	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AnimalRef es lo mínimo que este paquete necesita saber de un animal.
type AnimalRef struct {
	ID          string
	OwnerUserID string
	HouseholdID string
}
