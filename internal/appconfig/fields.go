package appconfig

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxAssetLength = 2048

var colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// field binds an override key to an AppConfig member and its validation rule.
// Exactly one of text or flag is set.
type field struct {
	key       string
	text      func(*AppConfig) *string
	flag      func(*AppConfig) *bool
	normalize func(string) (string, bool)
}

var fields = []field{
	textField("companyName", 64, func(c *AppConfig) *string { return &c.CompanyName }),
	textField("pageTitle", 120, func(c *AppConfig) *string { return &c.PageTitle }),
	textField("pageDescription", 300, func(c *AppConfig) *string { return &c.PageDescription }),

	flagField("supportsChatInput", func(c *AppConfig) *bool { return &c.SupportsChatInput }),
	flagField("supportsVideoInput", func(c *AppConfig) *bool { return &c.SupportsVideoInput }),
	flagField("supportsScreenShare", func(c *AppConfig) *bool { return &c.SupportsScreenShare }),
	flagField("isPreConnectBufferEnabled", func(c *AppConfig) *bool { return &c.IsPreConnectBufferEnabled }),

	{key: "logo", text: func(c *AppConfig) *string { return &c.Logo }, normalize: normalizeAsset},
	{key: "accent", text: func(c *AppConfig) *string { return &c.Accent }, normalize: normalizeColor},
	{key: "logoDark", text: func(c *AppConfig) *string { return &c.LogoDark }, normalize: normalizeAsset},
	{key: "accentDark", text: func(c *AppConfig) *string { return &c.AccentDark }, normalize: normalizeColor},
	textField("startButtonText", 40, func(c *AppConfig) *string { return &c.StartButtonText }),
}

func textField(key string, maxRunes int, dst func(*AppConfig) *string) field {
	return field{
		key:  key,
		text: dst,
		normalize: func(raw string) (string, bool) {
			return normalizeText(raw, maxRunes)
		},
	}
}

func flagField(key string, dst func(*AppConfig) *bool) field {
	return field{key: key, flag: dst}
}

// apply parses raw and stores it in cfg. It reports false, leaving cfg
// untouched, when raw is not acceptable for the field.
func (f field) apply(cfg *AppConfig, raw string) bool {
	if f.flag != nil {
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		*f.flag(cfg) = v
		return true
	}

	v, ok := f.normalize(raw)
	if !ok {
		return false
	}
	*f.text(cfg) = v
	return true
}

func (f field) valid(cfg AppConfig) bool {
	if f.flag != nil {
		return true
	}
	_, ok := f.normalize(*f.text(&cfg))
	return ok
}

// Keys lists every override key in declaration order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.key)
	}
	return keys
}

// IsColor reports whether s is a hex color token accepted for accent fields.
func IsColor(s string) bool {
	return colorPattern.MatchString(s)
}

func normalizeText(raw string, maxRunes int) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || !utf8.ValidString(s) {
		return "", false
	}
	if utf8.RuneCountInString(s) > maxRunes {
		return "", false
	}
	if strings.ContainsFunc(s, unicode.IsControl) {
		return "", false
	}
	return s, true
}

func normalizeAsset(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > maxAssetLength || strings.ContainsFunc(s, unicode.IsSpace) {
		return "", false
	}

	if strings.HasPrefix(s, "/") {
		if strings.HasPrefix(s, "//") {
			return "", false
		}
		if _, err := url.Parse(s); err != nil {
			return "", false
		}
		return s, true
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return s, true
}

func normalizeColor(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if !IsColor(s) {
		return "", false
	}
	return s, true
}
