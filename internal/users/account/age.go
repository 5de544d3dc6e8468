// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import "time"

// Age returns the number of complete years between birthDate and now, using
// calendar dates (the clock time of either argument is ignored).
//
// A birthday on Feb 29 is reached on Mar 1 in non-leap years. A birthDate
// after now yields a negative value; callers bucket it as "Other".
//
// The SQL expression in ageSQL must stay equivalent to this function.
func Age(birthDate, now time.Time) int {
	birthYear, birthMonth, birthDay := birthDate.Date()
	nowYear, nowMonth, nowDay := now.Date()

	years := nowYear - birthYear
	if nowMonth < birthMonth || (nowMonth == birthMonth && nowDay < birthDay) {
		years--
	}
	return years
}

// ageSQL computes [Age] in Postgres for a DATE column against the $1 reference date.
const ageSQL = `(date_part('year', $1::date)::int - date_part('year', %[1]s)::int
	- CASE WHEN (date_part('month', $1::date), date_part('day', $1::date))
	          < (date_part('month', %[1]s), date_part('day', %[1]s))
	       THEN 1 ELSE 0 END)`
