package domain

// User is a catalog manager account. Role is EDITOR or ADMIN; both may
// manage products, the distinction is kept for account administration.
type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}
