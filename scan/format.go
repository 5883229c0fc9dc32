package scan

import (
	"fmt"
	"io"
)

// Header is the column legend printed before the rows. It starts with a
// carriage return, not a newline, so host tools see the same bytes as from
// the hub firmware.
const Header = "\r      0  1  2  3  4  5  6  7  8  9  A  B  C  D  E  F\n"

// Absent marks an address that did not acknowledge.
const Absent = " --"

func writeHeader(w io.Writer) error {
	_, err := io.WriteString(w, Header)
	return err
}

func writeRowLabel(w io.Writer, high byte) error {
	_, err := fmt.Fprintf(w, "%2X: ", high)
	return err
}

func writeCell(w io.Writer, addr byte, present bool) error {
	if !present {
		_, err := io.WriteString(w, Absent)
		return err
	}
	_, err := fmt.Fprintf(w, " %2X", addr)
	return err
}

func writeRowEnd(w io.Writer) error {
	_, err := io.WriteString(w, "\n")
	return err
}
