package domain

// ValidID reports whether s is a well-formed 24-character hexadecimal
// object identifier.
func ValidID(s string) bool {
	if len(s) != 24 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// ValidateID returns ErrMalformedID for identifiers that are not valid
// 24-hex object ids. Every lookup path calls this before touching the store.
func ValidateID(s string) error {
	if !ValidID(s) {
		return ErrMalformedID
	}
	return nil
}
