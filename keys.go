package params

import "strings"

const (
	globalMarker  = "/"
	privateMarker = "~"
)

// KeyFor returns the fully-qualified store key for d. Global parameters are
// rooted at "/", private ones at "~"; a non-empty namespace is inserted
// between the marker and the parameter name.
func KeyFor(namespace string, d Descriptor) string {
	marker := privateMarker
	if d.GlobalScope {
		marker = globalMarker
	}
	ns := normalizeNamespace(namespace)
	if ns == "" {
		return marker + d.Name
	}
	return marker + ns + "/" + d.Name
}

// PrivateKey is the namespace-free private key checked for constant
// override attempts.
func PrivateKey(name string) string {
	return privateMarker + name
}

func normalizeNamespace(namespace string) string {
	return strings.Trim(strings.TrimSpace(namespace), "/")
}
