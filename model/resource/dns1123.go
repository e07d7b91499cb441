package resource

import (
	"regexp"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

var invalidDNS1123Chars = regexp.MustCompile(`[^a-z0-9-.]`)

// SanitizeNameToDNS1123 turns raw into a name the remote store accepts:
// lower-case alphanumerics, '-' and '.', no leading or trailing separator
// and no runs of separators. kindShort fills in where nothing usable is
// left at either end.
func SanitizeNameToDNS1123(raw, kindShort string) string {
	name := strings.ToLower(raw)
	name = strings.ReplaceAll(name, " ", "-")
	name = invalidDNS1123Chars.ReplaceAllString(name, "")

	if strings.Trim(name, "-.") == "" {
		return kindShort
	}

	if isSeparator(name[0]) {
		name = kindShort + name
	}

	var builder strings.Builder
	builder.Grow(len(name) + len(kindShort))
	lastWasSeparator := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !lastWasSeparator || !isSeparator(c) {
			builder.WriteByte(c)
		}
		lastWasSeparator = isSeparator(c)
	}
	if lastWasSeparator {
		builder.WriteString(kindShort)
	}

	name = builder.String()
	if len(name) > validation.DNS1123SubdomainMaxLength {
		name = strings.TrimRight(name[:validation.DNS1123SubdomainMaxLength], "-.")
	}
	return name
}

func isSeparator(c byte) bool {
	return c == '-' || c == '.'
}
