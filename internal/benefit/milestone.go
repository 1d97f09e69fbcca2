// Package benefit holds the static milestone configuration and the
// eligibility resolver. Both are pure: no I/O, no clock access.
package benefit

import "github.com/shopspring/decimal"

// Code identifies a milestone benefit. The pair (beneficiary, Code) is
// unique over the beneficiary's lifetime.
type Code string

const (
	CodeOctogenarian80 Code = "octogenarian_80"
	CodeOctogenarian85 Code = "octogenarian_85"
	CodeNonagenarian90 Code = "nonagenarian_90"
	CodeNonagenarian95 Code = "nonagenarian_95"
	CodeCentenarian100 Code = "centenarian_100"
)

// Milestone is one qualifying age and its one-time cash benefit. Amounts are
// copied onto applications at creation; changing this table never alters
// persisted rows.
type Milestone struct {
	QualifyingAge int
	BenefitCode   Code
	CashAmount    decimal.Decimal
}

// milestoneAmount is the grant for ages 80 through 95; centenarianAmount is
// the distinct, larger grant at 100.
var (
	milestoneAmount   = decimal.NewFromInt(10000)
	centenarianAmount = decimal.NewFromInt(100000)
)

// table is ordered by qualifying age. Immutable at runtime.
var table = []Milestone{
	{QualifyingAge: 80, BenefitCode: CodeOctogenarian80, CashAmount: milestoneAmount},
	{QualifyingAge: 85, BenefitCode: CodeOctogenarian85, CashAmount: milestoneAmount},
	{QualifyingAge: 90, BenefitCode: CodeNonagenarian90, CashAmount: milestoneAmount},
	{QualifyingAge: 95, BenefitCode: CodeNonagenarian95, CashAmount: milestoneAmount},
	{QualifyingAge: 100, BenefitCode: CodeCentenarian100, CashAmount: centenarianAmount},
}

// Milestones returns a copy of the milestone table, ordered by qualifying age.
func Milestones() []Milestone {
	out := make([]Milestone, len(table))
	copy(out, table)
	return out
}

// ByCode returns the milestone for a benefit code.
func ByCode(code Code) (Milestone, bool) {
	for _, m := range table {
		if m.BenefitCode == code {
			return m, true
		}
	}
	return Milestone{}, false
}

// ParseCode validates a benefit code string.
func ParseCode(raw string) (Code, bool) {
	code := Code(raw)
	_, ok := ByCode(code)
	return code, ok
}

// Valid reports whether c names a configured milestone.
func (c Code) Valid() bool {
	_, ok := ByCode(c)
	return ok
}

func (c Code) String() string { return string(c) }
