package eval

// likeMatch implements the SQL-Server-style LIKE pattern language from
// spec §4.5: '?' any single character, '#' any single digit, '*' any
// run of characters, '[abc]'/'[a-z]' a character class, '[!abc]' a
// negated class. The whole string must match (no implicit substring
// search). Grounded on original_source/db/core/Value.cpp's like_match
// recursive-descent shape.
func likeMatch(s, pattern string) (bool, error) {
	return matchLike([]rune(s), []rune(pattern)), nil
}

func matchLike(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}

	switch p[0] {
	case '*':
		if matchLike(s, p[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if matchLike(s[i+1:], p[1:]) {
				return true
			}
		}
		return false

	case '?':
		if len(s) == 0 {
			return false
		}
		return matchLike(s[1:], p[1:])

	case '#':
		if len(s) == 0 || s[0] < '0' || s[0] > '9' {
			return false
		}
		return matchLike(s[1:], p[1:])

	case '[':
		end := indexRune(p, ']')
		if end < 0 {
			// Unterminated class: treat '[' literally.
			if len(s) == 0 || s[0] != '[' {
				return false
			}
			return matchLike(s[1:], p[1:])
		}
		class := p[1:end]
		if len(s) == 0 {
			return false
		}
		if matchClass(s[0], class) {
			return matchLike(s[1:], p[end+1:])
		}
		return false

	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return matchLike(s[1:], p[1:])
	}
}

func indexRune(rs []rune, target rune) int {
	for i, r := range rs {
		if r == target {
			return i
		}
	}
	return -1
}

func matchClass(c rune, class []rune) bool {
	negate := false
	if len(class) > 0 && class[0] == '!' {
		negate = true
		class = class[1:]
	}
	matched := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if c >= class[i] && c <= class[i+2] {
				matched = true
			}
			i += 2
			continue
		}
		if class[i] == c {
			matched = true
		}
	}
	return matched != negate
}
