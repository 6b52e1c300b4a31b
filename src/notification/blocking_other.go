//go:build !windows

package notification

import (
	"fmt"
	"os"
)

// ShowBlockingError writes the message to stderr on platforms without a
// native message box.
func ShowBlockingError(title, message string) {
	fmt.Fprintf(os.Stderr, "%s: %s\n", title, message)
}
