package progress

// DaysPerYear is used to prorate the goal, leap years are not special cased.
const DaysPerYear = 365

// Summary compares achieved distance against a yearly goal on a given day.
type Summary struct {
	TargetKm              float64
	DailyTargetKm         float64
	DayOfYear             int
	ExpectedToDateKm      float64
	AchievedKm            float64
	EffectiveDailyKm      float64
	PercentOfTarget       float64
	DeltaKm               float64
	DeltaDays             float64
	IsAhead               bool
	ExtrapolatedYearEndKm float64
}

// Compute derives a Summary. goalKm must be positive and dayOfYear at least 1,
// both are guaranteed by the settings loader and the clock.
func Compute(goalKm, achievedMeters float64, dayOfYear int) Summary {
	achievedKm := achievedMeters / 1000
	dailyTargetKm := goalKm / DaysPerYear
	expectedToDateKm := dailyTargetKm * float64(dayOfYear)
	deltaKm := achievedKm - expectedToDateKm

	return Summary{
		TargetKm:              goalKm,
		DailyTargetKm:         dailyTargetKm,
		DayOfYear:             dayOfYear,
		ExpectedToDateKm:      expectedToDateKm,
		AchievedKm:            achievedKm,
		EffectiveDailyKm:      achievedKm / float64(dayOfYear),
		PercentOfTarget:       100 * achievedKm / goalKm,
		DeltaKm:               deltaKm,
		DeltaDays:             deltaKm / dailyTargetKm,
		IsAhead:               deltaKm > 0,
		ExtrapolatedYearEndKm: DaysPerYear * achievedKm / float64(dayOfYear),
	}
}
