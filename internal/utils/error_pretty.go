package utils

import (
	"fmt"
	"io"
	"strings"
)

// PrettyPrintError writes every wrapped layer of err on its own, increasingly indented line.
func PrettyPrintError(w io.Writer, err error) {
	parts := strings.Split(err.Error(), ": ")
	for indent, part := range parts {
		fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", indent), part)
	}
}
