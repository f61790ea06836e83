package model

// Contact is one extracted person/address pair. Values are built by the
// contact package and never mutated afterwards, except that deduplication
// stores the normalized email key.
type Contact struct {
	FullName  string
	FirstName string
	LastName  string
	Email     string
	// Domain is empty when Email carries no "@".
	Domain string
}

// Columns returns the export column headers in output order.
func Columns() []string {
	return []string{"Full Name", "First Name", "Last Name", "Email", "Domain"}
}

// Values returns the contact fields in the order of Columns.
func (c Contact) Values() []string {
	return []string{c.FullName, c.FirstName, c.LastName, c.Email, c.Domain}
}
