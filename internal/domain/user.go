package domain

// Session is the authorization input for cart and order operations.
type Session struct {
	ID            string `db:"id" json:"-"`
	Phone         string `db:"phone" json:"phone"`
	Authenticated bool   `db:"-" json:"isAuthenticated"`
	Admin         bool   `db:"is_admin" json:"isAdmin"`
	Token         string `db:"-" json:"-"`
}
