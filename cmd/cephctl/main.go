// Command cephctl is a msgr2/CephX client CLI: it dials Ceph monitors
// and OSDs directly over the wire protocol, without linking against
// librados, grounded on the teacher's cmd/dittofs entry point shape.
package main

import (
	"fmt"
	"os"

	"github.com/marmos91/cephmsgr/cmd/cephctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cephctl:", err)
		os.Exit(1)
	}
}
