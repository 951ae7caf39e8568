package whitelist

import (
	"strings"

	"uraniborg-lab/internal/domain/models"
)

// Prefixes that OEMs commonly swap for their own namespace when forking an AOSP app
var fuzzyPrefixes = []string{
	"com.android.",
	"android.",
}

// FuzzyMatch finds the candidate that name most likely corresponds to.
// An exact member wins. Otherwise a candidate such as "com.android.foo"
// matches any name ending in ".foo". The first match in candidate order
// is returned; which one wins among several qualifying candidates is
// not otherwise defined.
func FuzzyMatch(name string, candidates models.NameList) (string, bool) {
	if candidates.Has(name) {
		return name, true
	}

	for _, prefix := range fuzzyPrefixes {
		for candidate := range candidates.All() {
			if !strings.HasPrefix(candidate, prefix) {
				continue
			}
			suffix := "." + candidate[len(prefix):]
			if strings.HasSuffix(name, suffix) {
				return candidate, true
			}
		}
	}
	return "", false
}
