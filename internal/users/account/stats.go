// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/taibuivan/userdir/pkg/slice"
)

// # Report Types

// AgeBracketCount is one non-empty bucket of the age distribution.
type AgeBracketCount struct {
	AgeBracket string `json:"ageBracket"`
	TotalCount int    `json:"totalCount"`
}

// CityStat summarizes the users living in one city.
type CityStat struct {
	City                string  `json:"city"`
	UserCount           int     `json:"userCount"`
	OccupationDiversity int     `json:"occupationDiversity"`
	AverageAge          float64 `json:"averageAge"`
}

// OccupationStat summarizes the users sharing one occupation.
type OccupationStat struct {
	Occupation    string  `json:"occupation"`
	Count         int     `json:"count"`
	CityDiversity int     `json:"cityDiversity"`
	AverageAge    float64 `json:"averageAge"`
}

// Report is the combined demographics view.
type Report struct {
	AgeDistribution []AgeBracketCount `json:"ageDistribution"`
	TopCities       []CityStat        `json:"topCities"`
	TopOccupations  []OccupationStat  `json:"topOccupations"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

// TopGroupLimit is the number of cities and occupations kept in a report.
const TopGroupLimit = 10

// # Age Brackets

// AgeBracket is a half-open age range [Min, Max).
type AgeBracket struct {
	Label string
	Min   int
	Max   int
}

// OtherBracket labels ages outside every bracket (negative or 100+).
const OtherBracket = "Other"

// AgeBrackets lists the buckets in report order. Ages outside them fall into
// [OtherBracket], which is always reported last.
var AgeBrackets = []AgeBracket{
	{"Under 18", 0, 18},
	{"18-24", 18, 25},
	{"25-34", 25, 35},
	{"35-44", 35, 45},
	{"45-54", 45, 55},
	{"55-64", 55, 65},
	{"65+", 65, 100},
}

// BracketFor returns the label of the bracket containing age.
func BracketFor(age int) string {
	for _, bracket := range AgeBrackets {
		if age >= bracket.Min && age < bracket.Max {
			return bracket.Label
		}
	}
	return OtherBracket
}

// bracketRank orders labels as in [AgeBrackets] with Other last.
func bracketRank(label string) int {
	for i, bracket := range AgeBrackets {
		if bracket.Label == label {
			return i
		}
	}
	return len(AgeBrackets)
}

// bracketCaseSQL renders [BracketFor] as a CASE expression over ageExpr.
func bracketCaseSQL(ageExpr string) string {
	var builder strings.Builder
	builder.WriteString("CASE")
	for _, bracket := range AgeBrackets {
		fmt.Fprintf(&builder, " WHEN %[1]s >= %[2]d AND %[1]s < %[3]d THEN '%[4]s'", ageExpr, bracket.Min, bracket.Max, bracket.Label)
	}
	fmt.Fprintf(&builder, " ELSE '%s' END", OtherBracket)
	return builder.String()
}

// # Engine

// SummarizeAges buckets every profile and returns the non-empty brackets in
// report order.
func SummarizeAges(profiles []Profile, asOf time.Time) []AgeBracketCount {
	counts := make(map[string]int)
	for _, profile := range profiles {
		counts[BracketFor(Age(profile.DateOfBirth, asOf))]++
	}

	result := make([]AgeBracketCount, 0, len(counts))
	for label, count := range counts {
		result = append(result, AgeBracketCount{AgeBracket: label, TotalCount: count})
	}
	SortBrackets(result)
	return result
}

// SortBrackets orders bracket counts by bracket lower bound with Other last.
func SortBrackets(counts []AgeBracketCount) {
	sort.Slice(counts, func(i, j int) bool {
		return bracketRank(counts[i].AgeBracket) < bracketRank(counts[j].AgeBracket)
	})
}

// group is the accumulator shared by the city and occupation rollups.
type group struct {
	key       string
	count     int
	ageTotal  int
	secondary map[string]struct{}
}

func (g *group) averageAge() float64 {
	if g.count == 0 {
		return 0
	}
	return roundAverage(float64(g.ageTotal) / float64(g.count))
}

// rollup groups profiles by primary and counts distinct secondary values,
// then ranks groups by size (descending, ties by key ascending) and keeps limit.
func rollup(profiles []Profile, asOf time.Time, limit int, primary, secondary func(Profile) string) []*group {
	groups := make(map[string]*group)
	for _, profile := range profiles {
		key := primary(profile)
		current, ok := groups[key]
		if !ok {
			current = &group{key: key, secondary: make(map[string]struct{})}
			groups[key] = current
		}
		current.count++
		current.ageTotal += Age(profile.DateOfBirth, asOf)
		current.secondary[secondary(profile)] = struct{}{}
	}

	ranked := make([]*group, 0, len(groups))
	for _, current := range groups {
		ranked = append(ranked, current)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// SummarizeCities returns the top limit cities by user count.
func SummarizeCities(profiles []Profile, asOf time.Time, limit int) []CityStat {
	groups := rollup(profiles, asOf, limit,
		func(p Profile) string { return p.City },
		func(p Profile) string { return p.Occupation },
	)

	result := make([]CityStat, 0, len(groups))
	for _, current := range groups {
		result = append(result, CityStat{
			City:                current.key,
			UserCount:           current.count,
			OccupationDiversity: len(current.secondary),
			AverageAge:          current.averageAge(),
		})
	}
	return result
}

// SummarizeOccupations returns the top limit occupations by user count.
func SummarizeOccupations(profiles []Profile, asOf time.Time, limit int) []OccupationStat {
	groups := rollup(profiles, asOf, limit,
		func(p Profile) string { return p.Occupation },
		func(p Profile) string { return p.City },
	)

	result := make([]OccupationStat, 0, len(groups))
	for _, current := range groups {
		result = append(result, OccupationStat{
			Occupation:    current.key,
			Count:         current.count,
			CityDiversity: len(current.secondary),
			AverageAge:    current.averageAge(),
		})
	}
	return result
}

// MeanAge is the unrounded arithmetic mean of the ages of users as of asOf.
// The boolean is false when users is empty.
func MeanAge(users []*User, asOf time.Time) (float64, bool) {
	if len(users) == 0 {
		return 0, false
	}

	total := slice.Reduce(users, 0, func(sum int, user *User) int {
		return sum + Age(user.DateOfBirth, asOf)
	})
	return float64(total) / float64(len(users)), true
}

// roundAverage keeps two decimals so in-memory and SQL group averages agree.
func roundAverage(value float64) float64 {
	return math.Round(value*100) / 100
}

// # Filter Description

// DescribeFilter renders the human-readable scope of an average-age query.
func DescribeFilter(criteria Criteria) string {
	switch {
	case criteria.Occupation != "" && criteria.City != "":
		return fmt.Sprintf("%s users in %s", criteria.Occupation, criteria.City)
	case criteria.Occupation != "":
		return fmt.Sprintf("%s users", criteria.Occupation)
	case criteria.City != "":
		return fmt.Sprintf("users in %s", criteria.City)
	default:
		return "all users"
	}
}
