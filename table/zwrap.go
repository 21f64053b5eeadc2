/*
 * zwrap.go, part of mdcontacts.
 *
 * Copyright 2024 The mdcontacts authors.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 */

package table

import (
	"errors"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// zReader reads through an optional decompressor. Close closes the
// decompressor, then the underlying file.
type zReader struct {
	fp   io.ReadCloser
	zrdr io.Reader
	zcls func()
}

func (z *zReader) Read(p []byte) (int, error) {
	if z.zrdr != nil {
		return z.zrdr.Read(p)
	}
	return z.fp.Read(p)
}

func (z *zReader) Close() error {
	if z.zcls != nil {
		z.zcls()
	}
	return z.fp.Close()
}

// wrapReader wraps fp in a decompressor chosen from the suffix of name.
func wrapReader(fp io.ReadCloser, name string) (*zReader, error) {
	z := &zReader{fp: fp}
	switch strings.ToLower(name[strings.LastIndex(name, ".")+1:]) {
	case "gz":
		g, err := gzip.NewReader(fp)
		if err != nil {
			return nil, err
		}
		z.zrdr = g
		z.zcls = func() { g.Close() }
	case "zst":
		d, err := zstd.NewReader(fp)
		if err != nil {
			return nil, err
		}
		z.zrdr = d
		z.zcls = d.Close
	}
	return z, nil
}

// zWriter writes through an optional compressor. Close closes the
// compressor, then the underlying file.
type zWriter struct {
	fp   io.WriteCloser
	zwrt io.WriteCloser
}

func (z *zWriter) Write(p []byte) (int, error) {
	if z.zwrt != nil {
		return z.zwrt.Write(p)
	}
	return z.fp.Write(p)
}

func (z *zWriter) Close() error {
	var errs []error
	if z.zwrt != nil {
		errs = append(errs, z.zwrt.Close())
	}
	errs = append(errs, z.fp.Close())
	return errors.Join(errs...)
}

// wrapWriter wraps fp in a compressor chosen from the suffix of name.
func wrapWriter(fp io.WriteCloser, name string) (*zWriter, error) {
	z := &zWriter{fp: fp}
	var err error
	switch strings.ToLower(name[strings.LastIndex(name, ".")+1:]) {
	case "gz":
		z.zwrt = gzip.NewWriter(fp)
	case "zst":
		z.zwrt, err = zstd.NewWriter(fp)
	}
	return z, err
}
