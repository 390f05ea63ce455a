// This program performs administrative tasks against the blocks a node has
// written to disk.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/msgpool/app/tooling/admin/commands"
	"github.com/ardanlabs/msgpool/foundation/blockchain/database/storage"
	"github.com/ardanlabs/msgpool/foundation/blockchain/genesis"
	"github.com/ardanlabs/msgpool/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

const (
	dbPath      = "zblock/blocks/"
	genesisPath = "zblock/genesis.json"
)

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	log.Infow("startup", "build", build)

	if len(os.Args) < 2 {
		return errors.New("usage: admin blocks [from] | bals [account]")
	}

	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return err
	}

	strg, err := storage.NewDisk(dbPath)
	if err != nil {
		return err
	}
	defer strg.Close()

	return processCommands(os.Args, log, gen, strg)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args []string, log *zap.SugaredLogger, gen genesis.Genesis, strg *storage.Disk) error {
	switch args[1] {
	case "bals":
		if err := commands.Balances(os.Stdout, args, log, gen, strg); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}
	case "blocks":
		if err := commands.Blocks(os.Stdout, args, strg); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}
	default:
		return fmt.Errorf("unknown command %q", args[1])
	}

	return nil
}
