package benefit

import "time"

// maxPlausibleAge guards against malformed birth dates: anything older is
// treated as ineligible rather than erroring, so one bad record cannot crash
// a batch.
const maxPlausibleAge = 130

// Resolve computes the milestone a beneficiary qualifies for in the given
// program year, if any.
//
// Age is calendar-year arithmetic on the birth year, not an exact
// anniversary check: a beneficiary born 1944-12-31 is 80 for all of 2024.
// This mirrors how the program has always evaluated eligibility; tightening
// it would change who qualifies.
//
// A beneficiary matches at most one milestone per year (the qualifying ages
// are distinct), and different milestones in different years.
func Resolve(birthDate time.Time, programYear int) (Milestone, bool) {
	age := programYear - birthDate.Year()
	if age < 0 || age > maxPlausibleAge {
		return Milestone{}, false
	}
	for _, m := range table {
		if m.QualifyingAge == age {
			return m, true
		}
	}
	return Milestone{}, false
}

// AgeIn returns the calendar-year age of someone with the given birth date
// in the given program year. Shared with the statistics aggregator so age
// filters and eligibility use identical arithmetic.
func AgeIn(birthDate time.Time, programYear int) int {
	return programYear - birthDate.Year()
}
