package payroll

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultBaseSalaries is the bracket table used when none is configured.
const DefaultBaseSalaries = "manager:80000,developer:60000,intern:30000"

// DefaultFallbackBase applies to roles missing from the table.
const DefaultFallbackBase = "50000"

// BracketTable maps a lower-cased role to the reference salary that decides
// the bonus percentage. It is not a floor or cap on the actual salary.
type BracketTable struct {
	bases    map[string]decimal.Decimal
	fallback decimal.Decimal
}

// DefaultBrackets returns the built-in bracket table.
func DefaultBrackets() BracketTable {
	t, err := ParseBrackets(DefaultBaseSalaries, DefaultFallbackBase)
	if err != nil {
		panic(fmt.Sprintf("payroll: default brackets: %v", err))
	}
	return t
}

// ParseBrackets builds a table from "role:amount,role:amount" pairs.
// Roles are matched case-insensitively, so "Manager" and "manager" collide.
func ParseBrackets(table, fallback string) (BracketTable, error) {
	fb, err := parseAmount(fallback)
	if err != nil {
		return BracketTable{}, fmt.Errorf("payroll: default base: %w", err)
	}

	bases := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(table, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		role, amount, ok := strings.Cut(pair, ":")
		if !ok {
			return BracketTable{}, fmt.Errorf("payroll: bracket %q: expected role:amount", pair)
		}
		key := normalizeRole(role)
		if key == "" {
			return BracketTable{}, fmt.Errorf("payroll: bracket %q: empty role", pair)
		}
		if _, dup := bases[key]; dup {
			return BracketTable{}, fmt.Errorf("payroll: bracket %q: duplicate role", pair)
		}
		base, err := parseAmount(amount)
		if err != nil {
			return BracketTable{}, fmt.Errorf("payroll: bracket %q: %w", pair, err)
		}
		bases[key] = base
	}

	return BracketTable{bases: bases, fallback: fb}, nil
}

// BaseSalary returns the bracket for role, or the fallback for unknown roles.
func (t BracketTable) BaseSalary(role string) decimal.Decimal {
	if base, ok := t.bases[normalizeRole(role)]; ok {
		return base
	}
	return t.fallback
}

// Fallback returns the base applied to unrecognised roles.
func (t BracketTable) Fallback() decimal.Decimal {
	return t.fallback
}

// Roles lists the configured roles in lexical order.
func (t BracketTable) Roles() []string {
	roles := make([]string, 0, len(t.bases))
	for r := range t.bases {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", raw)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("negative amount %q", raw)
	}
	return d, nil
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
