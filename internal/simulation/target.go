package simulation

import "math"

// targetAmount is the deterministic shortfall yardstick: the closed-form
// future value of the initial amount plus regular monthly contributions
// compounded at the nominal (non-random) expected return. It is never
// randomized.
//
// At a monthly rate of exactly zero the annuity future-value formula
// divides by zero, so that case degrades to simple linear accumulation.
func targetAmount(initial, monthlyContribution float64, months int, annualReturn float64) float64 {
	monthlyRate := math.Pow(1+annualReturn, 1.0/12.0) - 1
	n := float64(months)

	if monthlyRate == 0 {
		return initial + monthlyContribution*n
	}

	growth := math.Pow(1+monthlyRate, n)
	return initial*growth + monthlyContribution*(growth-1)/monthlyRate
}
