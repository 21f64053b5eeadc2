/*
 * xdr.go, part of mdcontacts
 *
 * Copyright 2024 The mdcontacts authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License  as published by
 * the Free Software Foundation; either version 2.1 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston,
 * MA 02110-1301, USA.
 */

package xtc

import (
	"errors"
	"fmt"
)

// firstIdx is the first useful entry of magicints.
const firstIdx = 9

// magicints holds the sizes used for the run-length encoded small differences
// between consecutive atoms. Each one is about 2^(1/3) times the previous.
var magicints = [...]int32{
	0, 0, 0, 0, 0, 0, 0, 0, 0,
	8, 10, 12, 16, 20, 25, 32, 40, 50, 64,
	80, 101, 128, 161, 203, 256, 322, 406, 512, 645,
	812, 1024, 1290, 1625, 2048, 2580, 3250, 4096, 5060, 6501,
	8192, 10321, 13003, 16384, 20642, 26007, 32768, 41285, 52015, 65536,
	82570, 104031, 131072, 165140, 208063, 262144, 330280, 416127, 524287, 660561,
	832255, 1048576, 1321122, 1664510, 2097152, 2642245, 3329021, 4194304, 5284491, 6658042,
	8388607, 10568983, 13316085, 16777216,
}

var errShortBuffer = errors.New("compressed block ends prematurely")

// header contains the parameters of one compressed coordinate block.
type header struct {
	precision float32
	minint    [3]int32
	maxint    [3]int32
	smallidx  int32
}

// bitReader reads an MSB-first bit stream.
type bitReader struct {
	buf      []byte
	cnt      int
	lastbits uint
	lastbyte uint32
}

func (b *bitReader) nextByte() uint32 {
	if b.cnt >= len(b.buf) {
		panic(errShortBuffer)
	}
	c := b.buf[b.cnt]
	b.cnt++
	return uint32(c)
}

// receiveBits returns the next nbits bits (nbits <= 32) as an integer.
func (b *bitReader) receiveBits(nbits uint) uint32 {
	mask := uint32(0xffffffff)
	if nbits < 32 {
		mask = 1<<nbits - 1
	}
	var num uint32
	for nbits >= 8 {
		b.lastbyte = b.lastbyte<<8 | b.nextByte()
		num |= (b.lastbyte >> b.lastbits) << (nbits - 8)
		nbits -= 8
	}
	if nbits > 0 {
		if b.lastbits < nbits {
			b.lastbits += 8
			b.lastbyte = b.lastbyte<<8 | b.nextByte()
		}
		b.lastbits -= nbits
		num |= (b.lastbyte >> b.lastbits) & (1<<nbits - 1)
	}
	return num & mask
}

// receiveInts reads three integers packed in nbits bits as a single
// mixed-radix number with the given sizes.
func (b *bitReader) receiveInts(nbits uint, sizes [3]uint32, nums *[3]int32) {
	var bytes [32]uint64
	nbytes := 0
	for nbits > 8 {
		bytes[nbytes] = uint64(b.receiveBits(8))
		nbytes++
		nbits -= 8
	}
	if nbits > 0 {
		bytes[nbytes] = uint64(b.receiveBits(nbits))
		nbytes++
	}
	for i := 2; i > 0; i-- {
		var num uint64
		s := uint64(sizes[i])
		for j := nbytes - 1; j >= 0; j-- {
			num = num<<8 | bytes[j]
			p := num / s
			bytes[j] = p
			num -= p * s
		}
		nums[i] = int32(num)
	}
	nums[0] = int32(bytes[0] | bytes[1]<<8 | bytes[2]<<16 | bytes[3]<<24)
}

// sizeOfInt returns the number of bits needed to store any integer in [0, size).
func sizeOfInt(size uint32) uint {
	var num uint64 = 1
	var bits uint
	for uint64(size) >= num && bits < 32 {
		bits++
		num <<= 1
	}
	return bits
}

// sizeOfInts returns the number of bits needed to store three integers
// in [0, sizes[i]) packed together.
func sizeOfInts(sizes [3]uint32) uint {
	var bytes [32]uint64
	nbytes := 1
	bytes[0] = 1
	for _, s := range sizes {
		var tmp uint64
		cnt := 0
		for ; cnt < nbytes; cnt++ {
			tmp = bytes[cnt]*uint64(s) + tmp
			bytes[cnt] = tmp & 0xff
			tmp >>= 8
		}
		for tmp != 0 {
			bytes[cnt] = tmp & 0xff
			cnt++
			tmp >>= 8
		}
		nbytes = cnt
	}
	var bits uint
	var num uint64 = 1
	nbytes--
	for bytes[nbytes] >= num {
		bits++
		num *= 2
	}
	return bits + uint(nbytes)*8
}

// decompress decodes the compressed block data into coords (in nm). ints is
// scratch space with room for all the coordinates.
func decompress(h *header, data []byte, ints []int32, coords []float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch e := r.(type) {
			case error:
				err = fmt.Errorf("corrupted compressed coordinates: %w", e)
			default:
				err = fmt.Errorf("corrupted compressed coordinates: %v", e)
			}
		}
	}()
	natoms := len(coords) / 3
	if h.precision <= 0 {
		return fmt.Errorf("invalid precision %g", h.precision)
	}
	if h.smallidx < firstIdx || int(h.smallidx) >= len(magicints) {
		return fmt.Errorf("invalid small index %d", h.smallidx)
	}
	var sizeint [3]uint32
	var bitsizeint [3]uint
	var bitsize uint
	for k := 0; k < 3; k++ {
		sizeint[k] = uint32(h.maxint[k] - h.minint[k] + 1)
	}
	if sizeint[0]|sizeint[1]|sizeint[2] > 0xffffff {
		for k := 0; k < 3; k++ {
			bitsizeint[k] = sizeOfInt(sizeint[k])
		}
	} else {
		bitsize = sizeOfInts(sizeint)
	}
	smallidx := h.smallidx
	smaller := magicints[max(firstIdx, smallidx-1)] / 2
	smallnum := magicints[smallidx] / 2
	sizesmall := [3]uint32{uint32(magicints[smallidx]), uint32(magicints[smallidx]), uint32(magicints[smallidx])}
	inv := 1 / h.precision
	b := &bitReader{buf: data}
	out := 0 //atoms written
	put := func(c [3]int32) {
		if out >= natoms {
			panic(fmt.Errorf("more than %d atoms in block", natoms))
		}
		for k := 0; k < 3; k++ {
			ints[3*out+k] = c[k]
			coords[3*out+k] = float32(c[k]) * inv
		}
		out++
	}
	var this, prev, small [3]int32
	run := int32(0)
	for i := 0; i < natoms; {
		if bitsize == 0 {
			for k := 0; k < 3; k++ {
				this[k] = int32(b.receiveBits(bitsizeint[k]))
			}
		} else {
			b.receiveInts(bitsize, sizeint, &this)
		}
		i++
		for k := 0; k < 3; k++ {
			this[k] += h.minint[k]
		}
		prev = this
		isSmaller := int32(0)
		if b.receiveBits(1) == 1 {
			run = int32(b.receiveBits(5))
			isSmaller = run % 3
			run -= isSmaller
			isSmaller--
		}
		if run > 0 {
			for k := int32(0); k < run; k += 3 {
				b.receiveInts(uint(smallidx), sizesmall, &small)
				i++
				for l := 0; l < 3; l++ {
					small[l] += prev[l] - smallnum
				}
				if k == 0 {
					//the first small atom goes before the big one.
					this, prev = prev, small
					put(prev)
				} else {
					this = small
					prev = this
				}
				put(this)
			}
		} else {
			put(this)
		}
		smallidx += isSmaller
		if isSmaller < 0 {
			smallnum = smaller
			if smallidx > firstIdx {
				smaller = magicints[smallidx-1] / 2
			} else {
				smaller = 0
			}
		} else if isSmaller > 0 {
			smaller = smallnum
			smallnum = magicints[smallidx] / 2
		}
		sizesmall[0], sizesmall[1], sizesmall[2] = uint32(magicints[smallidx]), uint32(magicints[smallidx]), uint32(magicints[smallidx])
	}
	if out != natoms {
		return fmt.Errorf("%d atoms in block, expected %d", out, natoms)
	}
	return nil
}
