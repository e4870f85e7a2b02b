package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const maxEmailLength = 254

var (
	canonicalShopPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-]*\.myshopify\.com$`)
	customShopPattern    = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?)+$`)
	emailShapePattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	percentagePattern    = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

	minPercentage = decimal.NewFromInt(1)
	maxPercentage = decimal.NewFromInt(100)

	errInvalidPercentage = errors.New("percentage must be a number between 1 and 100")
)

// NormalizeShop trims and lower-cases a shop domain; every lookup keys on this form.
func NormalizeShop(shop string) string {
	return strings.ToLower(strings.TrimSpace(shop))
}

// IsCanonicalShopDomain reports whether shop is a <name>.myshopify.com domain.
func IsCanonicalShopDomain(shop string) bool {
	return canonicalShopPattern.MatchString(shop)
}

// ValidShopDomain accepts canonical domains and custom storefront domains.
func ValidShopDomain(shop string) bool {
	return IsCanonicalShopDomain(shop) || customShopPattern.MatchString(shop)
}

func ValidEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	if strings.HasPrefix(email, ".") || strings.HasSuffix(email, ".") ||
		strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return false
	}
	if strings.Contains(email, "..") || strings.Count(email, "@") != 1 {
		return false
	}
	if !emailShapePattern.MatchString(email) {
		return false
	}

	local, domain, _ := strings.Cut(email, "@")
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}

	labels := strings.Split(domain, ".")
	return len(labels[len(labels)-1]) >= 2
}

// ParsePercentage accepts plain decimal text with an optional trailing "%" and returns
// the value plus its canonical text for codes ("16.0" and "016%" both give "16").
func ParsePercentage(raw string) (decimal.Decimal, string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	if !percentagePattern.MatchString(text) {
		return decimal.Zero, "", fmt.Errorf("%w: %q", errInvalidPercentage, raw)
	}

	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, "", fmt.Errorf("%w: %q", errInvalidPercentage, raw)
	}
	if value.LessThan(minPercentage) || value.GreaterThan(maxPercentage) {
		return decimal.Zero, "", errInvalidPercentage
	}

	return value, value.String(), nil
}

// BuildCandidateCode concatenates prefix, percentage and order number, e.g. wincode16345.
func BuildCandidateCode(prefix, percentage string, orderNumber int64) string {
	return fmt.Sprintf("%s%s%d", prefix, percentage, orderNumber)
}
