package contact_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/contact-cleaner/contact"
	"github.com/dhcgn/contact-cleaner/model"
)

func TestFromEmail(t *testing.T) {
	cases := []struct {
		name  string
		email string
		want  model.Contact
	}{
		{
			name:  "dotted local part",
			email: "jane.doe@example.com",
			want:  model.Contact{FullName: "Jane.doe", FirstName: "Jane", LastName: "Doe", Email: "jane.doe@example.com", Domain: "example.com"},
		},
		{
			name:  "single token",
			email: "BOB@y.com",
			want:  model.Contact{FullName: "Bob", FirstName: "Bob", LastName: "", Email: "BOB@y.com", Domain: "y.com"},
		},
		{
			name:  "three segments keep first two",
			email: "first.middle.last@x.com",
			want:  model.Contact{FullName: "First.middle.last", FirstName: "First", LastName: "Middle", Email: "first.middle.last@x.com", Domain: "x.com"},
		},
		{
			name:  "trailing dot",
			email: "jane.@x.com",
			want:  model.Contact{FullName: "Jane.", FirstName: "Jane", LastName: "", Email: "jane.@x.com", Domain: "x.com"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := contact.FromEmail(tc.email)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromEmailEmpty(t *testing.T) {
	_, ok := contact.FromEmail("")
	assert.False(t, ok)
}

func TestFromNameAndEmail(t *testing.T) {
	cases := []struct {
		name    string
		display string
		want    model.Contact
		ok      bool
	}{
		{
			name:    "two tokens",
			display: "Jane Doe",
			want:    model.Contact{FullName: "Jane Doe", FirstName: "Jane", LastName: "Doe", Email: "j@x.com", Domain: "x.com"},
			ok:      true,
		},
		{
			name:    "quotes and extra space",
			display: ` "Jane   van  der Berg" `,
			want:    model.Contact{FullName: "Jane van der Berg", FirstName: "Jane", LastName: "van der Berg", Email: "j@x.com", Domain: "x.com"},
			ok:      true,
		},
		{
			name:    "punctuation becomes space",
			display: "O'Brien-Smith",
			want:    model.Contact{FullName: "O Brien Smith", FirstName: "O", LastName: "Brien Smith", Email: "j@x.com", Domain: "x.com"},
			ok:      true,
		},
		{
			name:    "single token",
			display: "Jo",
			want:    model.Contact{FullName: "Jo", FirstName: "Jo", Email: "j@x.com", Domain: "x.com"},
			ok:      true,
		},
		{
			name:    "casing preserved",
			display: "jANE dOE",
			want:    model.Contact{FullName: "jANE dOE", FirstName: "jANE", LastName: "dOE", Email: "j@x.com", Domain: "x.com"},
			ok:      true,
		},
		{name: "one char", display: "X", ok: false},
		{name: "only punctuation", display: `"' -- '"`, ok: false},
		{name: "one char after sanitize", display: "(X)", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := contact.FromNameAndEmail(tc.display, "j@x.com")
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "Müller Jürgen", contact.SanitizeName("Müller, Jürgen"))
	assert.Equal(t, "A B", contact.SanitizeName("\tA\n\nB  "))
	assert.Equal(t, "", contact.SanitizeName("  ...  "))
	assert.Equal(t, "Agent 007", contact.SanitizeName("Agent_007"))
}

func TestDomain(t *testing.T) {
	assert.Equal(t, "example.com", contact.Domain("a@example.com"))
	assert.Equal(t, "example.com", contact.Domain("a@ example.com "))
	assert.Equal(t, "", contact.Domain("no-at-sign"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Jane", contact.Capitalize("jANE"))
	assert.Equal(t, "Élodie", contact.Capitalize("élodie"))
	assert.Equal(t, "", contact.Capitalize(""))
	assert.Equal(t, "123abc", contact.Capitalize("123ABC"))
}
