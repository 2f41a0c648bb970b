// Copyright 2017 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package log

import "strconv"

// appendInt64 appends the base-10 logfmt rendering of n to dst.
func appendInt64(dst []byte, n int64) []byte {
	return strconv.AppendInt(dst[:0], n, 10)
}

// appendUint64 appends the base-10 logfmt rendering of n to dst, with an
// optional "0x" hex form when hex is true.
func appendUint64(dst []byte, n uint64, hex bool) []byte {
	if hex {
		return strconv.AppendUint(append(dst[:0], '0', 'x'), n, 16)
	}
	return strconv.AppendUint(dst[:0], n, 10)
}
