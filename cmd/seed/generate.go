// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/taibuivan/userdir/internal/users/account"
)

var (
	firstNames = []string{"Ada", "Kwame", "Amara", "Chidi", "Zainab", "Tunde", "Ngozi", "Kofi", "Fatima", "Emeka", "Aisha", "Yaw"}
	lastNames  = []string{"Okafor", "Mensah", "Adeyemi", "Boateng", "Bello", "Owusu", "Eze", "Diallo", "Nwosu", "Asante"}
	domains    = []string{"example.com", "example.org", "example.net"}

	// A small fixed pool so the demographics report has something to group.
	cities      = []string{"Lagos", "Accra", "Nairobi", "Kigali", "Abuja", "Kumasi", "Dakar"}
	occupations = []string{"Engineer", "Teacher", "Nurse", "Accountant", "Designer"}
)

const (
	passwordLength = 9
	alphanumeric   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	minAgeYears    = 18
	maxAgeYears    = 80
)

// generateUsers builds count valid payloads. The same seed and reference
// time always yield the same users; emails are unique within a batch.
func generateUsers(rng *rand.Rand, count int, now time.Time) []account.CreateInput {
	inputs := make([]account.CreateInput, 0, count)

	for i := range count {
		first := pick(rng, firstNames)
		last := pick(rng, lastNames)

		inputs = append(inputs, account.CreateInput{
			Username:    first + " " + last,
			Email:       fmt.Sprintf("%s.%s.%d@%s", strings.ToLower(first), strings.ToLower(last), i+1, pick(rng, domains)),
			Password:    randomPassword(rng),
			DateOfBirth: birthdate(rng, now).Format(time.DateOnly),
			City:        pick(rng, cities),
			Occupation:  pick(rng, occupations),
		})
	}

	return inputs
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

func randomPassword(rng *rand.Rand) string {
	var builder strings.Builder
	builder.Grow(passwordLength)
	for range passwordLength {
		builder.WriteByte(alphanumeric[rng.IntN(len(alphanumeric))])
	}
	return builder.String()
}

// birthdate returns a date putting the user between minAgeYears and
// maxAgeYears old at now.
func birthdate(rng *rand.Rand, now time.Time) time.Time {
	latest := now.AddDate(-minAgeYears, 0, 0)
	earliest := now.AddDate(-maxAgeYears, 0, 0)
	days := int(latest.Sub(earliest).Hours() / 24)
	return earliest.AddDate(0, 0, rng.IntN(days+1)).Truncate(24 * time.Hour)
}
