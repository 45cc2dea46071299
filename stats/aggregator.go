package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/robmorgan/onbeat/timing"
)

// Aggregator counts hit tiers and misses. It holds no policy logic.
type Aggregator struct {
	tiers  map[timing.Tier]int
	order  []timing.Tier
	hits   int
	misses int

	streak     int
	bestStreak int

	// running mean and variance of hit accuracy (Welford)
	offsets int
	mean    float64
	m2      float64
}

// NewAggregator creates an empty aggregator. Tiers are reported in the given order.
func NewAggregator(tiers ...timing.Tier) *Aggregator {
	a := &Aggregator{tiers: map[timing.Tier]int{}}
	for _, t := range tiers {
		a.addTier(t)
	}
	return a
}

func (a *Aggregator) addTier(t timing.Tier) {
	if _, ok := a.tiers[t]; ok {
		return
	}
	a.tiers[t] = 0
	a.order = append(a.order, t)
}

// RecordHit counts one hit of the given tier.
func (a *Aggregator) RecordHit(tier timing.Tier) {
	a.addTier(tier)
	a.tiers[tier]++
	a.hits++
	a.streak++
	if a.streak > a.bestStreak {
		a.bestStreak = a.streak
	}
}

// RecordMiss counts one miss.
func (a *Aggregator) RecordMiss() {
	a.misses++
	a.streak = 0
}

// ObserveAccuracy adds the accuracy of a hit, in beats, to the offset statistics.
func (a *Aggregator) ObserveAccuracy(accuracy float64) {
	a.offsets++
	delta := accuracy - a.mean
	a.mean += delta / float64(a.offsets)
	a.m2 += delta * (accuracy - a.mean)
}

// Hits returns the number of hits of every tier.
func (a *Aggregator) Hits() int { return a.hits }

// Misses returns the number of misses.
func (a *Aggregator) Misses() int { return a.misses }

// Attempts returns hits plus misses.
func (a *Aggregator) Attempts() int { return a.hits + a.misses }

// TierCount returns the number of hits of one tier.
func (a *Aggregator) TierCount(tier timing.Tier) int { return a.tiers[tier] }

// Streak returns the number of consecutive hits since the last miss.
func (a *Aggregator) Streak() int { return a.streak }

// BestStreak returns the longest run of consecutive hits.
func (a *Aggregator) BestStreak() int { return a.bestStreak }

// Accuracy returns hits/(hits+misses)*100, or 0 before any attempt.
func (a *Aggregator) Accuracy() float64 {
	if a.Attempts() == 0 {
		return 0
	}
	return float64(a.hits) / float64(a.Attempts()) * 100
}

// MeanOffset returns the mean signed accuracy of observed hits in beats.
func (a *Aggregator) MeanOffset() float64 {
	return a.mean
}

// StdevOffset returns the sample standard deviation of observed hit accuracies, or 0 with fewer
// than two observations.
func (a *Aggregator) StdevOffset() float64 {
	if a.offsets < 2 {
		return 0
	}
	return math.Sqrt(a.m2 / float64(a.offsets-1))
}

// Reset clears all counters, keeping the known tiers.
func (a *Aggregator) Reset() {
	for t := range a.tiers {
		a.tiers[t] = 0
	}
	a.hits, a.misses = 0, 0
	a.streak, a.bestStreak = 0, 0
	a.offsets, a.mean, a.m2 = 0, 0, 0
}

// Report is a copy of the counters at one point in time.
type Report struct {
	Tiers       []TierTotal
	Hits        int
	Misses      int
	Accuracy    float64
	BestStreak  int
	MeanOffset  float64
	StdevOffset float64
}

// TierTotal is the hit count of one tier.
type TierTotal struct {
	Tier  timing.Tier
	Count int
}

// Report returns the current counters.
func (a *Aggregator) Report() Report {
	r := Report{
		Hits:        a.hits,
		Misses:      a.misses,
		Accuracy:    a.Accuracy(),
		BestStreak:  a.bestStreak,
		MeanOffset:  a.mean,
		StdevOffset: a.StdevOffset(),
	}
	for _, t := range a.order {
		r.Tiers = append(r.Tiers, TierTotal{Tier: t, Count: a.tiers[t]})
	}
	return r
}

// Write prints the report as aligned text.
func (r Report) Write(w io.Writer) error {
	for _, tc := range r.Tiers {
		if _, err := fmt.Fprintf(w, "%10s: %6d\n", tc.Tier, tc.Count); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%10s: %6d\n%10s: %6.2f%%\n%10s: %6d\n%10s: %+6.3f beats\n%10s: %6.3f beats\n",
		timing.Miss, r.Misses,
		"Accuracy", r.Accuracy,
		"Streak", r.BestStreak,
		"Mean", r.MeanOffset,
		"Stdev", r.StdevOffset,
	)
	return err
}
