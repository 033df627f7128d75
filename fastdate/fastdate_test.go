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

package fastdate

import "testing"

func testDateTimeRecomposition(t *testing.T, unixtime int64) {
	dt, tod := dateTimeFromTimestamp(Timestamp(unixtime))
	unixtime2 := int64(timestampFromDateTime(dt, tod))

	if unixtime != unixtime2 {
		t.Errorf("Failed to recompose %d | decomposed year(%d) month(%d) day(%d) unixtime(%d)", unixtime, dt.year4(), dt.month1(), dt.day1(), unixtime2)
	}
}

func TestDateTimeRoundTripsThroughDecomposition(t *testing.T) {
	testDateTimeRecomposition(t, -1000000000000000)
	testDateTimeRecomposition(t, -100000000000000)
	testDateTimeRecomposition(t, -10000000000000)
	testDateTimeRecomposition(t, -1000000000000)
	testDateTimeRecomposition(t, -100000000000)
	testDateTimeRecomposition(t, -10000000000)
	testDateTimeRecomposition(t, -1000000000)
	testDateTimeRecomposition(t, -100000000)
	testDateTimeRecomposition(t, -10000000)
	testDateTimeRecomposition(t, -1000000)
	testDateTimeRecomposition(t, -100000)
	testDateTimeRecomposition(t, -10000)
	testDateTimeRecomposition(t, -1000)
	testDateTimeRecomposition(t, -100)
	testDateTimeRecomposition(t, -10)
	testDateTimeRecomposition(t, -1)
	testDateTimeRecomposition(t, 0)
	testDateTimeRecomposition(t, 1)
	testDateTimeRecomposition(t, 10)
	testDateTimeRecomposition(t, 100)
	testDateTimeRecomposition(t, 1000)
	testDateTimeRecomposition(t, 10000)
	testDateTimeRecomposition(t, 100000)
	testDateTimeRecomposition(t, 1000000)
	testDateTimeRecomposition(t, 10000000)
	testDateTimeRecomposition(t, 100000000)
	testDateTimeRecomposition(t, 1000000000)
	testDateTimeRecomposition(t, 10000000000)
	testDateTimeRecomposition(t, 100000000000)
	testDateTimeRecomposition(t, 1000000000000)
	testDateTimeRecomposition(t, 10000000000000)
	testDateTimeRecomposition(t, 100000000000000)
	testDateTimeRecomposition(t, 1000000000000000)
	testDateTimeRecomposition(t, 10000000000000000)
	testDateTimeRecomposition(t, 100000000000000000)
}

// 2021-03-15T10:30:00Z, the fixture every test below shifts or reads a field from.
const baseTimestamp = Timestamp(1615804200000000)

func TestExtractReadsCalendarFields(t *testing.T) {
	ts := baseTimestamp
	if y := ts.ExtractYear(); y != 2021 {
		t.Errorf("ExtractYear() = %d, want 2021", y)
	}
	if m := ts.ExtractMonth(); m != 3 {
		t.Errorf("ExtractMonth() = %d, want 3", m)
	}
	if q := ts.ExtractQuarter(); q != 1 {
		t.Errorf("ExtractQuarter() = %d, want 1", q)
	}
	if d := ts.ExtractDay(); d != 15 {
		t.Errorf("ExtractDay() = %d, want 15", d)
	}
	if h := ts.ExtractHour(); h != 10 {
		t.Errorf("ExtractHour() = %d, want 10", h)
	}
	if m := ts.ExtractMinute(); m != 30 {
		t.Errorf("ExtractMinute() = %d, want 30", m)
	}
}

func TestAddMonthAndAddYearShiftTheCalendar(t *testing.T) {
	const wantPlusYear = Timestamp(1647340200000000)  // 2022-03-15T10:30:00Z
	const wantPlusMonth = Timestamp(1618482600000000) // 2021-04-15T10:30:00Z

	if got, ok := baseTimestamp.AddYear(1); !ok || got != wantPlusYear {
		t.Errorf("AddYear(1) = (%d, %v), want (%d, true)", got, ok, wantPlusYear)
	}
	if got, ok := baseTimestamp.AddMonth(1); !ok || got != wantPlusMonth {
		t.Errorf("AddMonth(1) = (%d, %v), want (%d, true)", got, ok, wantPlusMonth)
	}
	wantPlusQuarter, _ := baseTimestamp.AddMonth(3)
	if got, ok := baseTimestamp.AddQuarter(1); !ok || got != wantPlusQuarter {
		t.Errorf("AddQuarter(1) = (%d, %v), want AddMonth(3) = %d", got, ok, wantPlusQuarter)
	}
}

func TestDateDiffAgreesWithTheShiftItInverts(t *testing.T) {
	plusYear, _ := baseTimestamp.AddYear(1)
	if diff := baseTimestamp.DateDiffMonth(plusYear); diff != 12 {
		t.Errorf("DateDiffMonth(base, base+1y) = %d, want 12", diff)
	}
	if diff := plusYear.DateDiffMonth(baseTimestamp); diff != -12 {
		t.Errorf("DateDiffMonth(base+1y, base) = %d, want -12", diff)
	}
	if diff := baseTimestamp.DateDiffMicrosecond(plusYear); diff != int64(plusYear-baseTimestamp) {
		t.Errorf("DateDiffMicrosecond(base, base+1y) = %d, want %d", diff, int64(plusYear-baseTimestamp))
	}
}
