package service

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// Strength labels returned by Score.
const (
	StrengthVeryWeak   = "Very Weak"
	StrengthWeak       = "Weak"
	StrengthFair       = "Fair"
	StrengthStrong     = "Strong"
	StrengthVeryStrong = "Very Strong"
)

const (
	passwordMinLength = 8
	passwordMaxLength = 128
)

// commonPasswords is an exact-match denylist. Matching is case-insensitive.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"123456":      {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty":      {},
	"qwerty123":   {},
	"abc123":      {},
	"monkey":      {},
	"letmein":     {},
	"dragon":      {},
	"111111":      {},
	"baseball":    {},
	"iloveyou":    {},
	"trustno1":    {},
	"sunshine":    {},
	"master":      {},
	"welcome":     {},
	"shadow":      {},
	"ashley":      {},
	"football":    {},
	"jesus":       {},
	"michael":     {},
	"ninja":       {},
	"mustang":     {},
	"password12":  {},
	"admin":       {},
	"admin123":    {},
	"root":        {},
	"passw0rd":    {},
	"p@ssword":    {},
}

// commonSequences are substrings that weaken a password regardless of the
// rest of its content.
var commonSequences = []string{"123", "abc", "qwe", "password", "admin"}

// PasswordService owns the password policy, scoring, and hashing.
type PasswordService struct {
	bcryptCost int
}

func NewPasswordService(bcryptCost int) *PasswordService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &PasswordService{bcryptCost: bcryptCost}
}

// Validate checks a candidate password against the policy and returns every
// violation, not just the first.
func (s *PasswordService) Validate(password string) (bool, []string) {
	var violations []string

	if len(password) < passwordMinLength {
		violations = append(violations, "Password must be at least 8 characters long")
	}
	if len(password) > passwordMaxLength {
		violations = append(violations, "Password must not exceed 128 characters")
	}

	hasUpper, hasLower, hasDigit, hasSpecial := classifyChars(password)
	if !hasUpper {
		violations = append(violations, "Password must contain at least one uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "Password must contain at least one lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "Password must contain at least one digit")
	}
	if !hasSpecial {
		violations = append(violations, "Password must contain at least one special character")
	}

	lowered := strings.ToLower(password)
	if _, found := commonPasswords[lowered]; found {
		violations = append(violations, "Password is too common")
	}
	if hasRepeatedRun(password, 3) {
		violations = append(violations, "Password must not contain 3 or more repeated characters in a row")
	}
	for _, seq := range commonSequences {
		if strings.Contains(lowered, seq) {
			violations = append(violations, "Password must not contain common sequences or words")
			break
		}
	}

	return len(violations) == 0, violations
}

// Score rates a password 0-100 and labels it. Scoring is independent of
// Validate; a failing password still gets an honest score.
func (s *PasswordService) Score(password string) (int, string) {
	score := 0

	if len(password) >= 8 {
		score += 20
	}
	if len(password) >= 12 {
		score += 10
	}
	if len(password) >= 16 {
		score += 10
	}

	hasUpper, hasLower, hasDigit, hasSpecial := classifyChars(password)
	for _, present := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if present {
			score += 15
		}
	}

	if len(password) > 0 {
		unique := map[rune]struct{}{}
		for _, r := range password {
			unique[r] = struct{}{}
		}
		if float64(len(unique))/float64(len([]rune(password))) >= 0.7 {
			score += 10
		}
	}

	if _, found := commonPasswords[strings.ToLower(password)]; found {
		score -= 30
	}
	if hasRepeatedRun(password, 3) {
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return score, strengthLabel(score)
}

// Hash produces a bcrypt hash of the password
func (s *PasswordService) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify compares a plaintext candidate against a stored hash
func (s *PasswordService) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func strengthLabel(score int) string {
	switch {
	case score < 30:
		return StrengthVeryWeak
	case score < 50:
		return StrengthWeak
	case score < 70:
		return StrengthFair
	case score < 90:
		return StrengthStrong
	default:
		return StrengthVeryStrong
	}
}

func classifyChars(password string) (hasUpper, hasLower, hasDigit, hasSpecial bool) {
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	return
}

func hasRepeatedRun(password string, runLength int) bool {
	runes := []rune(password)
	count := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			count++
			if count >= runLength {
				return true
			}
		} else {
			count = 1
		}
	}
	return false
}
