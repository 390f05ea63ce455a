// This program is a wallet for the node. It signs and submits messages and
// runs offline selections over pool snapshots.
package main

import "github.com/ardanlabs/msgpool/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
