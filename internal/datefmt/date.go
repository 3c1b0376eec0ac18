// Copyright 2019 Ross Light
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package datefmt

import (
	"fmt"
	"time"
)

type field int8

const (
	fieldEra field = 1 + iota
	fieldYear
	fieldYearOfEra
	fieldWeekBasedYear
	fieldDayOfYear
	fieldMonth
	fieldDayOfMonth
	fieldQuarter
	fieldDayOfWeek
	fieldLocalDayOfWeek
	fieldWeekOfWeekBasedYear
	fieldWeekOfMonth
	fieldAlignedWeekOfMonth
	fieldModifiedJulianDay
)

var fieldNames = map[field]string{
	fieldEra:                 "Era",
	fieldYear:                "Year",
	fieldYearOfEra:           "YearOfEra",
	fieldWeekBasedYear:       "WeekBasedYear",
	fieldDayOfYear:           "DayOfYear",
	fieldMonth:               "MonthOfYear",
	fieldDayOfMonth:          "DayOfMonth",
	fieldQuarter:             "QuarterOfYear",
	fieldDayOfWeek:           "DayOfWeek",
	fieldLocalDayOfWeek:      "LocalizedDayOfWeek",
	fieldWeekOfWeekBasedYear: "WeekOfWeekBasedYear",
	fieldWeekOfMonth:         "WeekOfMonth",
	fieldAlignedWeekOfMonth:  "AlignedWeekOfMonth",
	fieldModifiedJulianDay:   "ModifiedJulianDay",
}

func (f field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("field(%d)", int(f))
}

// Weeks start on Sunday and the first week of a year or month may have a
// single day, as in the United States.
const minimalDaysInFirstWeek = 1

// modifiedJulianEpochDay is the modified julian day of 1970-01-01.
const modifiedJulianEpochDay = 40587

type date struct {
	// t is midnight UTC of the calendar date.
	t     time.Time
	year  int
	month time.Month
	day   int
}

func newDate(t time.Time) *date {
	y, m, d := t.Date()
	return &date{
		t:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		year:  y,
		month: m,
		day:   d,
	}
}

func (d *date) get(f field) int64 {
	switch f {
	case fieldEra:
		if d.year >= 1 {
			return 1
		}
		return 0
	case fieldYear:
		return int64(d.year)
	case fieldYearOfEra:
		if d.year >= 1 {
			return int64(d.year)
		}
		return int64(1 - d.year)
	case fieldWeekBasedYear:
		return int64(d.weekBasedYear())
	case fieldDayOfYear:
		return int64(d.t.YearDay())
	case fieldMonth:
		return int64(d.month)
	case fieldDayOfMonth:
		return int64(d.day)
	case fieldQuarter:
		return int64(d.month-1)/3 + 1
	case fieldDayOfWeek:
		if wd := d.t.Weekday(); wd != time.Sunday {
			return int64(wd)
		}
		return 7
	case fieldLocalDayOfWeek:
		return int64(d.localDayOfWeek())
	case fieldWeekOfWeekBasedYear:
		return int64(d.weekOfWeekBasedYear())
	case fieldWeekOfMonth:
		return int64(computeWeek(startOfWeekOffset(d.day, d.localDayOfWeek()), d.day))
	case fieldAlignedWeekOfMonth:
		return int64(d.day-1)/7 + 1
	case fieldModifiedJulianDay:
		return d.t.Unix()/(24*60*60) + modifiedJulianEpochDay
	default:
		panic("unknown field")
	}
}

// localDayOfWeek numbers the days of the week from Sunday = 1.
func (d *date) localDayOfWeek() int {
	return int(d.t.Weekday()) + 1
}

func (d *date) weekOfWeekBasedYear() int {
	doy := d.t.YearDay()
	offset := startOfWeekOffset(doy, d.localDayOfWeek())
	week := computeWeek(offset, doy)
	switch {
	case week == 0:
		// Belongs to the last week of the previous year.
		return newDate(d.t.AddDate(0, 0, -doy)).weekOfWeekBasedYear()
	case week > 50:
		newYearWeek := computeWeek(offset, daysInYear(d.year)+minimalDaysInFirstWeek)
		if week >= newYearWeek {
			week = week - newYearWeek + 1
		}
	}
	return week
}

func (d *date) weekBasedYear() int {
	doy := d.t.YearDay()
	offset := startOfWeekOffset(doy, d.localDayOfWeek())
	week := computeWeek(offset, doy)
	if week == 0 {
		return d.year - 1
	}
	if week >= computeWeek(offset, daysInYear(d.year)+minimalDaysInFirstWeek) {
		return d.year + 1
	}
	return d.year
}

// startOfWeekOffset returns the offset of the first day of the first week
// relative to day, given that day falls on dow.
func startOfWeekOffset(day, dow int) int {
	weekStart := floorMod(day-dow, 7)
	offset := -weekStart
	if weekStart+1 > minimalDaysInFirstWeek {
		offset = 7 - weekStart
	}
	return offset
}

func computeWeek(offset, day int) int {
	return (7 + offset + (day - 1)) / 7
}

func daysInYear(year int) int {
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		return 366
	}
	return 365
}

func floorMod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}
