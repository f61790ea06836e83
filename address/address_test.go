package address_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dhcgn/contact-cleaner/address"
)

func TestValid(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "plain", input: "jdoe@example.com", want: true},
		{name: "surrounding space", input: "  jdoe@example.com \t", want: true},
		{name: "subdomain", input: "a.b@mail.example.co.uk", want: true},
		{name: "empty", input: "", want: false},
		{name: "blank", input: "   ", want: false},
		{name: "leading slash", input: "/jdoe@example.com", want: false},
		{name: "no at", input: "jdoe.example.com", want: false},
		{name: "no dot", input: "jdoe@example", want: false},
		{name: "dot only in local part", input: "j.doe@example", want: false},
		{name: "two ats", input: "a@b@example.com", want: false},
		{name: "empty local", input: "@example.com", want: false},
		{name: "empty domain", input: "jdoe.x@", want: false},
		{name: "exchange dn", input: "user@/O=ORG/OU=X/CN=RECIPIENTS/CN=JDOE", want: false},
		{name: "marker lower case", input: "x@first administrative group.com", want: false},
		{name: "recipients marker", input: "recipients@example.com", want: false},
		{name: "midboromgmnt", input: "MidBoroMgmnt@example.com", want: false},
		{name: "non ascii", input: "jürgen@exämple.de", want: true},
		{name: "none like", input: "None", want: false},
		{name: "nan", input: "nan", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, address.Valid(tc.input))
		})
	}
}

func TestValidNeverPanics(t *testing.T) {
	inputs := []string{"\x00", "@", ".", "@.", "\xff\xfe@x.y", "<>", "a@b.c@", "🙂@🙂.🙂"}
	for _, in := range inputs {
		assert.NotPanics(t, func() { address.Valid(in) }, "input %q", in)
	}
}

func BenchmarkValid(b *testing.B) {
	inputs := []string{
		"jane.doe@example.com",
		"user@/O=ORG/OU=X/CN=RECIPIENTS/CN=JDOE",
		"not-an-email",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		address.Valid(inputs[i%len(inputs)])
	}
}
