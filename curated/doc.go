// This file is part of bin2cas.
//
// bin2cas is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// bin2cas is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with bin2cas.  If not, see <https://www.gnu.org/licenses/>.

// Package curated is the error type used throughout bin2cas. A curated error
// is created with a pattern string, in the manner of fmt.Errorf(), but the
// pattern is retained so that errors can be tested for with the Is() and
// Has() functions.
//
// The patterns used by the project are defined in this package so that the
// question "what kind of error is this" has one answer everywhere.
package curated
