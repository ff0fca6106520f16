package app

import "time"

const (
	// BasePoints is awarded for every correct answer.
	BasePoints = 100
	// MaxTimeBonus is the bonus for an instantaneous correct answer.
	MaxTimeBonus = 100
	// bonusStep is the latency that costs one bonus point.
	bonusStep = 100 * time.Millisecond
)

// TimeBonus decays one point per 100ms of latency and never goes below zero.
func TimeBonus(elapsed time.Duration) int {
	if elapsed < 0 {
		elapsed = 0
	}
	steps := elapsed / bonusStep
	if steps >= MaxTimeBonus {
		return 0
	}
	return MaxTimeBonus - int(steps)
}

// PointsFor returns the points awarded for an answer given its latency.
func PointsFor(correct bool, elapsed time.Duration) int {
	if !correct {
		return 0
	}
	return BasePoints + TimeBonus(elapsed)
}
