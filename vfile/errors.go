package vfile

import "errors"

var (
	// ErrInit indicates a backend could not be constructed or opened.
	ErrInit = errors.New("byte source init failed")
	// ErrRead indicates a short or failed read.
	ErrRead = errors.New("read failed")
	// ErrWrite indicates a short or failed write, or a write past the
	// capacity of a non-growable buffer.
	ErrWrite = errors.New("write failed")
	// ErrSeek indicates a seek target outside the valid range.
	ErrSeek = errors.New("seek out of range")
	// ErrClosed indicates use of a byte source after Close.
	ErrClosed = errors.New("byte source closed")
)
