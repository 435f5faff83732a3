package fund

// AuthContext describes who is calling into a controller. Controllers ask
// it for capabilities instead of reading ambient session flags.
type AuthContext interface {
	// Subject identifies the caller in logs ("guest" or an admin email).
	Subject() string
	// CanMutate reports whether the caller may change stored data.
	CanMutate() bool
}

// Guest is the read-only capability set.
type Guest struct{}

func (Guest) Subject() string { return "guest" }
func (Guest) CanMutate() bool { return false }

// Admin is an authenticated treasurer.
type Admin struct {
	Email string
}

func (a Admin) Subject() string { return a.Email }
func (Admin) CanMutate() bool   { return true }

// RequireAdmin returns ErrUnauthorized unless auth may mutate.
func RequireAdmin(auth AuthContext) error {
	if auth == nil || !auth.CanMutate() {
		return ErrUnauthorized
	}
	return nil
}
