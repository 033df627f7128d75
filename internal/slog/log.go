// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package slog is a minimal diagnostic hook used by the sort and
// cursor packages to report spill, flush, barrier, and interrupt
// events without pulling in a logging dependency.
package slog

// Logf is a global diagnostic function that can be set during
// init() (or by an embedding application) to capture additional
// diagnostic output from the execution core.
var Logf func(f string, args ...any)

// Printf reports a diagnostic message if a logger has been installed.
func Printf(f string, args ...any) {
	if Logf != nil {
		Logf(f, args...)
	}
}
