package auth

// Claims representa la información extraída del token.
// HouseholdID viene del proveedor de identidad; si no viene, el hogar es el propio usuario.
type Claims struct {
	UserID      string
	Email       string
	HouseholdID string
}

// Household devuelve el hogar efectivo del usuario.
func (c Claims) Household() string {
	if c.HouseholdID != "" {
		return c.HouseholdID
	}
	return c.UserID
}
