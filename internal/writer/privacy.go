package writer

import "regexp"

// defaultPrivacyPatterns matches the default set from §4.3 stage 2: OpenAI-
// style keys, GitHub tokens, password/secret assignments, RFC1918 IPv4
// prefixes, and localhost:<port>. Replaced wholesale (not merged) when the
// caller supplies its own pattern list.
var defaultPrivacyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{20,}`),
	regexp.MustCompile(`(?i)(password|secret)\s*[:=]\s*\S+`),
	regexp.MustCompile(`\b192\.168\.\d{1,3}\.\d{1,3}\b`),
	regexp.MustCompile(`\b10\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`),
	regexp.MustCompile(`\blocalhost:\d{2,5}\b`),
}

// PrivacyFilter holds the active pattern list for the privacy stage.
type PrivacyFilter struct {
	patterns []*regexp.Regexp
}

// NewPrivacyFilter builds a filter from configured regex source strings.
// An empty list falls back to the defaults; a non-empty list replaces them
// entirely, per §4.3 stage 2 ("defaults are NOT implicitly preserved").
func NewPrivacyFilter(patterns []string) (*PrivacyFilter, error) {
	if len(patterns) == 0 {
		return &PrivacyFilter{patterns: defaultPrivacyPatterns}, nil
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return &PrivacyFilter{patterns: compiled}, nil
}

// Check returns a non-empty rejection reason if content matches any active
// privacy pattern.
func (f *PrivacyFilter) Check(content string) string {
	for _, re := range f.patterns {
		if re.MatchString(content) {
			return "contains sensitive information"
		}
	}
	return ""
}
