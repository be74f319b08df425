package core

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate      = validator.New()
	companySlugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

const (
	dateLayout     = "2006-01-02"
	maxCompanySlug = 64
)

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func validCompanySlug(id string) bool {
	return len(id) <= maxCompanySlug && companySlugRe.MatchString(id)
}

// sanitizeCNPJ keeps only digits.
func sanitizeCNPJ(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return string(out)
}

// validCNPJ checks length and rejects the all-equal-digits placeholders.
func validCNPJ(cnpj string) bool {
	if len(cnpj) != 14 {
		return false
	}
	for i := 1; i < len(cnpj); i++ {
		if cnpj[i] != cnpj[0] {
			return true
		}
	}
	return false
}

// cleanIDs trims, drops empties and de-duplicates while keeping order.
func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// validDateRange accepts empty dates and otherwise requires YYYY-MM-DD with start <= end.
func validDateRange(start, end string) bool {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse(dateLayout, start); err != nil {
			return false
		}
	}
	if end != "" {
		if e, err = time.Parse(dateLayout, end); err != nil {
			return false
		}
	}
	return start == "" || end == "" || !e.Before(s)
}
