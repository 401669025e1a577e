package main

import (
	"fmt"
	"os"

	"github.com/HerbHall/fortimap/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "discover":
		runDiscover(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "backup":
		runBackup(os.Args[2:])
	case "restore":
		runRestore(os.Args[2:])
	case "version":
		fmt.Println(version.Info())
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: fortimap <command> [flags]

Commands:
  discover   query a FortiGate once and write topology files
  serve      run the topology service with periodic refresh
  backup     archive the snapshot database and config
  restore    restore files from a backup archive
  version    print version information

Run 'fortimap <command> -h' for command flags.
`)
}
