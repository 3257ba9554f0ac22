package orders

const RoleAdmin = "admin"

// Identity est l'utilisateur authentifié à l'origine de l'appel.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

func (i Identity) canRead(ownerID string) bool {
	return i.IsAdmin() || (i.UserID != "" && i.UserID == ownerID)
}
