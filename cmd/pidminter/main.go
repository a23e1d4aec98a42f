// pidminter inspects and maintains identifier minters and canonicalizes
// DOI and ARK identifiers.
package main

import (
	"os"
)

func main() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}
