package imagesource

import "strings"

// PermissiveLicenseMarkers are the substrings that qualify a license
// short-name as openly usable. A license matches when its lowercased text
// contains any marker; there is no precedence among them.
var PermissiveLicenseMarkers = []string{
	"public domain",
	"pd-",
	"cc0",
	"cc by",
}

// UnknownLicense is the fallback short-name used when a file carries
// extended metadata without a license label. It never matches the
// allow-list, so unlabeled files are dropped from discovery.
const UnknownLicense = "Unknown"

// IsPermissiveLicense reports whether licenseText names an openly-licensed
// work. Case-insensitive substring match against PermissiveLicenseMarkers,
// short-circuiting on the first hit. Pure function, no I/O.
func IsPermissiveLicense(licenseText string) bool {
	lower := strings.ToLower(licenseText)
	for _, marker := range PermissiveLicenseMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
