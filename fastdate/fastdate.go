// Copyright 2023 Sneller, Inc.
//
//  Licensed under the Apache License, Version 2.0 (the "License");
//  you may not use this file except in compliance with the License.
//  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.

// Package fastdate holds the calendar arithmetic behind eval's
// DATE_ADD, DATE_DIFF and EXTRACT bound expressions: adding a unit of
// time to a microsecond timestamp, diffing two timestamps in whole
// units, and reading a single calendar field back out of one. It only
// carries the three operation families those expressions dispatch on
// — there is no DATE_TRUNC or DATE_BIN bound expression to exercise a
// truncate-to-bucket kernel, so none is kept here.
//
// DateTime composition and decomposition is based on the following article:
//
//   https://howardhinnant.github.io/date_algorithms.html
package fastdate

const millisecondsPerSecond = 1000
const microsecondsPerSecond = 1000000
const microsecondsPerMinute = 60 * microsecondsPerSecond
const microsecondsPerHour = 60 * microsecondsPerMinute
const microsecondsPerDay = 24 * microsecondsPerHour // 86400000000

const daysPer400YearCycle = 146097
const unixDaysToYear0Delta = 719468

// Timestamp is a count of microseconds since the Unix epoch, the wire
// representation of sonictype.DATETIME columns.
type Timestamp int64

// decomposedDate is the internal year/month/day breakdown used to
// carry out calendar-aware arithmetic (month and year deltas have to
// go through it; pure sub-day deltas never do). Its month and day
// fields are zero-based and its year starts in March, matching the
// Howard Hinnant algorithm's internal calendar.
type decomposedDate struct {
	year  int32
	month uint16 // 0..11, starting from March
	day   uint16 // 0..30
}

var extractDoyPredicate = [12]uint32{
	59,  // March
	90,  // April
	120, // May
	151, // June
	181, // July
	212, // August
	243, // September
	273, // October
	304, // November
	334, // December
	0,   // January
	31,  // February
}

func isLeapYear(y int32) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func floorDivInt32(x, y int32) int32 {
	if x < 0 {
		x = x - y + 1
	}
	return x / y
}

func floorDivInt64(x, y int64) int64 {
	if x < 0 {
		x = x - y + 1
	}
	return x / y
}

func dateFromUnixDays(days int64) decomposedDate {
	days += unixDaysToYear0Delta

	era := floorDivInt64(days, daysPer400YearCycle)
	doe := uint32(days - era*daysPer400YearCycle)
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365

	y := int32(yoe) + int32(era)*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	m := (5*doy + 2) / 153
	d := doy - (153*m+2)/5

	return decomposedDate{
		year:  y,
		month: uint16(m),
		day:   uint16(d),
	}
}

func unixDaysFromDate(dd decomposedDate) int64 {
	y := dd.year
	m := uint32(dd.month)
	d := uint32(dd.day)

	era := floorDivInt32(y, 400)
	yoe := uint32(y - era*400)             // [0..399]
	doy := (153*(m)+2)/5 + d               // [0..365]
	doe := yoe*365 + yoe/4 - yoe/100 + doy // [0..146096]

	return int64(era)*daysPer400YearCycle + int64(doe) - unixDaysToYear0Delta
}

func splitTimestamp(ts Timestamp) (days int64, timeOfDay uint64) {
	days = floorDivInt64(int64(ts), microsecondsPerDay)
	return days, uint64(int64(ts) - days*microsecondsPerDay)
}

func dateTimeFromTimestamp(ts Timestamp) (decomposedDate, uint64) {
	days, tod := splitTimestamp(ts)
	return dateFromUnixDays(days), tod
}

func timestampFromDateTime(dd decomposedDate, timeOfDay uint64) Timestamp {
	days := unixDaysFromDate(dd)
	return Timestamp(days*microsecondsPerDay + int64(timeOfDay))
}

func (dd decomposedDate) year4() int32 {
	y := dd.year
	if dd.month >= 10 {
		y++
	}
	return y
}

func (dd decomposedDate) month1() uint32 {
	m := uint32(dd.month) + 3
	if m > 12 {
		m -= 12
	}
	return m
}

func (dd decomposedDate) quarter1() uint32 {
	// Maps a month starting from March into its 1-based calendar quarter.
	predicate := (uint64(1) << 0) |
		(uint64(2) << 4) |
		(uint64(2) << 8) |
		(uint64(2) << 12) |
		(uint64(3) << 16) |
		(uint64(3) << 20) |
		(uint64(3) << 24) |
		(uint64(4) << 28) |
		(uint64(4) << 32) |
		(uint64(4) << 36) |
		(uint64(1) << 40) |
		(uint64(1) << 44)
	return uint32(predicate>>(dd.month<<2)) & 0xF
}

func (dd decomposedDate) day1() uint32 {
	return uint32(dd.day) + 1
}

// Add* implement DATE_ADD(unit, amount, ts). eval/date.go turns a
// false bool into a NULL output row, but every Add* returns true:
// overflow of the int64 microsecond range is not detected and wraps.

func (ts Timestamp) AddMicrosecond(val int64) (Timestamp, bool) {
	return Timestamp(int64(ts) + val), true
}

func (ts Timestamp) AddMillisecond(val int64) (Timestamp, bool) {
	return Timestamp(int64(ts) + val*1000), true
}

func (ts Timestamp) AddSecond(val int64) (Timestamp, bool) {
	return Timestamp(int64(ts) + val*microsecondsPerSecond), true
}

func (ts Timestamp) AddMinute(val int64) (Timestamp, bool) {
	return Timestamp(int64(ts) + val*microsecondsPerMinute), true
}

func (ts Timestamp) AddHour(val int64) (Timestamp, bool) {
	return Timestamp(int64(ts) + val*microsecondsPerHour), true
}

func (ts Timestamp) AddDay(val int64) (Timestamp, bool) {
	return Timestamp(int64(ts) + val*microsecondsPerDay), true
}

func (ts Timestamp) AddMonth(val int64) (Timestamp, bool) {
	dd, tod := dateTimeFromTimestamp(ts)

	m := int64(dd.month) + val
	yDiff := floorDivInt64(m, 12)
	y := int64(dd.year) + yDiff

	dd.month = uint16(m - yDiff*12)
	dd.year = int32(y)

	return timestampFromDateTime(dd, tod), true
}

func (ts Timestamp) AddQuarter(val int64) (Timestamp, bool) {
	return ts.AddMonth(val * 3)
}

func (ts Timestamp) AddYear(val int64) (Timestamp, bool) {
	dd, tod := dateTimeFromTimestamp(ts)
	dd.year = int32(int64(dd.year) + val)
	return timestampFromDateTime(dd, tod), true
}

// DateDiffMonth implements the month-granularity DATE_DIFF units
// (MONTH, QUARTER, YEAR divide this down further); the result is
// whole elapsed months between the two timestamps, signed by which
// side is earlier.
func (ts Timestamp) DateDiffMonth(other Timestamp) int64 {
	inverted := ts > other
	if inverted {
		ts, other = other, ts
	}

	// ts is now the lesser timestamp, other the greater one.
	loDate, loTime := dateTimeFromTimestamp(ts)

	// Greater timestamp's value decremented by hours/minutes/... from the lesser timestamp.
	other -= Timestamp(loTime)
	hiDate, _ := dateTimeFromTimestamp(other)

	loMonths := int64(loDate.year)*12 + int64(loDate.month)
	hiMonths := int64(hiDate.year)*12 + int64(hiDate.month)

	m := (hiMonths - loMonths) - 1
	if loDate.day <= hiDate.day {
		m += 1
	}
	if m < 0 {
		m = 0
	}

	if inverted {
		m = -m
	}
	return m
}

// DateDiffMicrosecond implements the sub-month DATE_DIFF units; the
// caller divides the microsecond count down to whatever unit it needs.
func (ts Timestamp) DateDiffMicrosecond(origin Timestamp) int64 {
	return int64(origin) - int64(ts)
}

// Extract* implement EXTRACT(unit FROM ts).

func (ts Timestamp) ExtractMicrosecond() uint32 {
	result := int32(ts % microsecondsPerMinute)
	if result < 0 {
		result += microsecondsPerMinute
	}
	return uint32(result)
}

func (ts Timestamp) ExtractMillisecond() uint32 {
	return ts.ExtractMicrosecond() / millisecondsPerSecond
}

func (ts Timestamp) ExtractSecond() uint32 {
	return ts.ExtractMicrosecond() / microsecondsPerSecond
}

func (ts Timestamp) ExtractMinute() uint32 {
	result := int64(ts % microsecondsPerHour)
	if result < 0 {
		result += microsecondsPerHour
	}
	return uint32(uint64(result) / microsecondsPerMinute)
}

func (ts Timestamp) ExtractHour() uint32 {
	result := int64(ts % microsecondsPerDay)
	if result < 0 {
		result += microsecondsPerDay
	}
	return uint32(uint64(result) / microsecondsPerHour)
}

func (ts Timestamp) ExtractDay() uint32 {
	dd, _ := dateTimeFromTimestamp(ts)
	return dd.day1()
}

func (ts Timestamp) ExtractDOW() uint32 {
	dow := int32(floorDivInt64(int64(ts), microsecondsPerDay)+4) % 7
	if dow < 0 {
		dow += 7
	}
	return uint32(dow)
}

func (ts Timestamp) ExtractDOY() uint32 {
	dd, _ := dateTimeFromTimestamp(ts)
	doy := extractDoyPredicate[dd.month] + dd.day1()
	if dd.month < 10 && isLeapYear(dd.year4()) {
		doy++
	}
	return doy
}

func (ts Timestamp) ExtractMonth() uint32 {
	dd, _ := dateTimeFromTimestamp(ts)
	return dd.month1()
}

func (ts Timestamp) ExtractQuarter() uint32 {
	dd, _ := dateTimeFromTimestamp(ts)
	return dd.quarter1()
}

func (ts Timestamp) ExtractYear() int32 {
	dd, _ := dateTimeFromTimestamp(ts)
	return dd.year4()
}
