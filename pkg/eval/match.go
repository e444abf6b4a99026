package eval

import (
	"fmt"
	"sync"

	"github.com/dlclark/regexp2"
)

// MATCH evaluates an ECMAScript-compatible regular expression against
// a full string (spec §4.5), via the same library the rest of the
// retrieved pack uses for ECMAScript regex support. Compiled patterns
// are cached since a query may evaluate MATCH once per row.
var (
	matchCacheMu sync.Mutex
	matchCache   = map[string]*regexp2.Regexp{}
)

func regexMatch(s, pattern string) (bool, error) {
	re, err := compileMatchPattern(pattern)
	if err != nil {
		return false, err
	}
	ok, err := re.MatchString(s)
	if err != nil {
		return false, fmt.Errorf("MATCH evaluation failed: %w", err)
	}
	return ok, nil
}

func compileMatchPattern(pattern string) (*regexp2.Regexp, error) {
	matchCacheMu.Lock()
	defer matchCacheMu.Unlock()
	if re, ok := matchCache[pattern]; ok {
		return re, nil
	}
	// regexp2 searches for a match anywhere in the string like .NET's
	// Regex, not a full match like std::regex_match; anchor it so
	// MATCH rejects a pattern that only matches part of the string.
	re, err := regexp2.Compile("^(?:"+pattern+")$", regexp2.ECMAScript)
	if err != nil {
		return nil, fmt.Errorf("invalid MATCH pattern '%s': %w", pattern, err)
	}
	matchCache[pattern] = re
	return re, nil
}
