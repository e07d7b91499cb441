package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/util/validation"
)

func TestSanitizeNameToDNS1123(t *testing.T) {
	type args struct {
		raw       string
		kindShort string
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "spaces and punctuation",
			args: args{raw: "My API!!", kindShort: "api"},
			want: "my-api",
		},
		{
			name: "only separators",
			args: args{raw: "---", kindShort: "api"},
			want: "api",
		},
		{
			name: "nothing valid",
			args: args{raw: "!!!", kindShort: "api"},
			want: "api",
		},
		{
			name: "leading separator",
			args: args{raw: "-orders", kindShort: "api"},
			want: "api-orders",
		},
		{
			name: "trailing separator",
			args: args{raw: "orders.", kindShort: "api"},
			want: "orders.api",
		},
		{
			name: "collapse mixed separators",
			args: args{raw: "orders  v1..beta-.x", kindShort: "api"},
			want: "orders-v1.beta-x",
		},
		{
			name: "already valid",
			args: args{raw: "payments.v2", kindShort: "api"},
			want: "payments.v2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeNameToDNS1123(tt.args.raw, tt.args.kindShort)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, validation.IsDNS1123Subdomain(got), "%q is not a DNS-1123 subdomain", got)
		})
	}
}

func TestSanitizeNameToDNS1123Truncates(t *testing.T) {
	raw := ""
	for i := 0; i < 300; i++ {
		raw += "a"
	}
	got := SanitizeNameToDNS1123(raw, "api")
	assert.Len(t, got, validation.DNS1123SubdomainMaxLength)
	assert.Empty(t, validation.IsDNS1123Subdomain(got))
}

func TestKindShortName(t *testing.T) {
	assert.Equal(t, "api", Kind{Kind: "API"}.ShortName())
	assert.Equal(t, "cm", Kind{Kind: "ConfigMap"}.ShortName())
	assert.Equal(t, "k8sedit.io/v1, Resource=apis", Kind{Group: "k8sedit.io", Version: "v1", Kind: "API", Plural: "apis"}.String())
}

func TestLookupKind(t *testing.T) {
	kind := Kind{Group: "example.com", Version: "v1", Kind: "Widget", Plural: "widgets", Singular: "widget", Namespaced: true}
	_, _, find := LookupKind(kind.GVK())
	assert.False(t, find)

	RegisterKind(kind, func() Object { return nil })
	got, newFunc, find := LookupKind(kind.GVK())
	assert.True(t, find)
	assert.Equal(t, kind, got)
	assert.NotNil(t, newFunc)
}
