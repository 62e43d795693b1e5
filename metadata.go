package imagesource

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/bep/imagemeta"
)

// RightsMetadata holds the EXIF/IPTC/XMP rights fields extracted from
// image binary data. Used for the ingest-time advisory check: a stock
// agency fingerprint in a supposedly open image is worth a warning.
type RightsMetadata struct {
	EXIFCopyright   string
	EXIFArtist      string
	IPTCCopyright   string
	IPTCCredit      string
	IPTCSource      string
	XMPLicense      string
	XMPWebStatement string
	XMPUsageTerms   string
	DCRights        string
}

// stockAgencyKeywords are substrings that identify a stock-photo agency in
// any rights field (case-insensitive).
var stockAgencyKeywords = []string{
	"shutterstock",
	"gettyimages",
	"getty images",
	"istockphoto",
	"istock",
	"alamy",
	"depositphotos",
	"dreamstime",
	"123rf",
	"adobestock",
	"adobe stock",
	"freepik",
}

// ccLicensePathSegments are URL path prefixes that identify a Creative
// Commons license or public-domain dedication.
var ccLicensePathSegments = []string{
	"creativecommons.org/licenses/",
	"creativecommons.org/publicdomain/",
}

// warnOnRightsMetadata inspects the downloaded bytes for embedded rights
// metadata and logs a warning when a stock-agency fingerprint appears
// without a Creative Commons marker. Purely advisory: never fails and
// never filters — candidate acceptance is decided by the license
// allow-list alone.
func (cfg *Config) warnOnRightsMetadata(sourceURL string, data []byte) {
	meta := extractRightsMetadata(data)
	if meta == nil {
		return
	}
	if !hasStockFingerprint(meta) {
		return
	}
	if hasCCMarker(meta) {
		slog.Debug("imagesource: stock fingerprint overruled by CC marker", "url", sourceURL)
		return
	}
	slog.Warn("imagesource: stock agency fingerprint in embedded metadata", "url", sourceURL)
}

// hasStockFingerprint reports whether any rights field names a known stock
// agency.
func hasStockFingerprint(meta *RightsMetadata) bool {
	fields := []string{
		meta.EXIFCopyright,
		meta.EXIFArtist,
		meta.IPTCCopyright,
		meta.IPTCCredit,
		meta.IPTCSource,
		meta.DCRights,
	}
	for _, f := range fields {
		if f == "" {
			continue
		}
		lower := strings.ToLower(f)
		for _, kw := range stockAgencyKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// hasCCMarker reports whether any XMP/DC license field carries a Creative
// Commons license URL.
func hasCCMarker(meta *RightsMetadata) bool {
	for _, f := range []string{
		meta.XMPLicense,
		meta.XMPWebStatement,
		meta.XMPUsageTerms,
		meta.DCRights,
	} {
		lower := strings.ToLower(f)
		for _, seg := range ccLicensePathSegments {
			if strings.Contains(lower, seg) {
				return true
			}
		}
	}
	return false
}

// rightsTags maps (source, tag-name) → true for every tag extracted.
var rightsTags = map[imagemeta.Source]map[string]bool{
	imagemeta.IPTC: {
		"CopyrightNotice": true,
		"Credit":          true,
		"Source":          true,
	},
	imagemeta.EXIF: {
		"Copyright": true,
		"Artist":    true,
	},
	imagemeta.XMP: {
		"WebStatement": true,
		"UsageTerms":   true,
		"License":      true,
		"Rights":       true,
	},
}

// extractRightsMetadata parses EXIF/IPTC/XMP rights fields from raw image
// bytes. Returns nil if the data is empty, cannot be parsed, or carries no
// rights fields. Graceful degradation: never returns an error.
func extractRightsMetadata(data []byte) *RightsMetadata {
	if len(data) == 0 {
		return nil
	}

	meta := &RightsMetadata{}
	found := false

	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if tags, ok := rightsTags[ti.Source]; ok {
				return tags[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s := tagValueString(ti.Value)
			if s == "" {
				return nil
			}
			if dest := rightsField(meta, ti.Source, ti.Tag); dest != nil {
				*dest = s
				found = true
			}
			return nil
		},
	})

	if err != nil || !found {
		return nil
	}
	return meta
}

// rightsField maps a (source, tag) pair to the RightsMetadata field it
// populates, or nil for tags outside the rights set.
func rightsField(meta *RightsMetadata, source imagemeta.Source, tag string) *string {
	switch source {
	case imagemeta.IPTC:
		switch tag {
		case "CopyrightNotice":
			return &meta.IPTCCopyright
		case "Credit":
			return &meta.IPTCCredit
		case "Source":
			return &meta.IPTCSource
		}
	case imagemeta.EXIF:
		switch tag {
		case "Copyright":
			return &meta.EXIFCopyright
		case "Artist":
			return &meta.EXIFArtist
		}
	case imagemeta.XMP:
		switch tag {
		case "WebStatement":
			return &meta.XMPWebStatement
		case "UsageTerms":
			return &meta.XMPUsageTerms
		case "License":
			return &meta.XMPLicense
		case "Rights":
			return &meta.DCRights
		}
	}
	return nil
}

// tagValueString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
		return ""
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
		return ""
	default:
		return ""
	}
}
