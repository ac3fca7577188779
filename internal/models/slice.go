package models

import "fmt"

// Slice describes one image file of a slice stack
type Slice struct {
	// Index is the position of this slice in the sequence, which is also
	// its z coordinate
	Index int

	// Number is the sequence number parsed from the filename
	Number int

	// Filename is the original filename of the slice
	Filename string

	// Width and Height are the decoded image dimensions in pixels. They are
	// zero until the image has been read.
	Width, Height int
}

func (s Slice) String() string {
	return fmt.Sprintf("slice %d (%s, %dx%d)", s.Index, s.Filename, s.Width, s.Height)
}
