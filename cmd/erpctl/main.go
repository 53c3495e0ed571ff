package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// Supported subcommands:
// - keygen:        Print fresh token secrets and a carrier key
// - hash-password: Hash a password read from stdin
// - inspect:       Decrypt a session cookie with the configured key
// - cleanup:       Delete credential records past retention
// - revoke:        Sign a principal out everywhere

func main() {
	// Subcommand definitions
	keygenCmd := flag.NewFlagSet("keygen", flag.ExitOnError)
	hashCmd := flag.NewFlagSet("hash-password", flag.ExitOnError)
	inspectCmd := flag.NewFlagSet("inspect", flag.ExitOnError)
	cleanupCmd := flag.NewFlagSet("cleanup", flag.ExitOnError)
	revokeCmd := flag.NewFlagSet("revoke", flag.ExitOnError)

	// hash-password parameters
	hashCost := hashCmd.Int("cost", bcrypt.DefaultCost, "bcrypt cost")

	// inspect parameters
	inspectValue := inspectCmd.String("cookie", "", "Session cookie value")

	// revoke parameters
	revokePrincipal := revokeCmd.String("principal", "", "Principal ID to sign out")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flags := ctlFlags{
		Keygen: keygenFlags{cmd: keygenCmd},
		Hash: hashFlags{
			cmd:  hashCmd,
			cost: hashCost,
		},
		Inspect: inspectFlags{
			cmd:   inspectCmd,
			value: inspectValue,
		},
		Cleanup: cleanupFlags{cmd: cleanupCmd},
		Revoke: revokeFlags{
			cmd:       revokeCmd,
			principal: revokePrincipal,
		},
	}

	if err := runSubcommand(ctx, &flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type ctlFlags struct {
	Keygen  keygenFlags
	Hash    hashFlags
	Inspect inspectFlags
	Cleanup cleanupFlags
	Revoke  revokeFlags
}

type keygenFlags struct {
	cmd *flag.FlagSet
}

type hashFlags struct {
	cmd  *flag.FlagSet
	cost *int
}

type inspectFlags struct {
	cmd   *flag.FlagSet
	value *string
}

type cleanupFlags struct {
	cmd *flag.FlagSet
}

type revokeFlags struct {
	cmd       *flag.FlagSet
	principal *string
}

func runSubcommand(ctx context.Context, flags *ctlFlags) error {
	switch os.Args[1] {
	case "keygen":
		return handleKeygen(flags)
	case "hash-password":
		return handleHashPassword(flags)
	case "inspect":
		return handleInspect(flags)
	case "cleanup":
		return handleCleanup(ctx, flags)
	case "revoke":
		return handleRevoke(ctx, flags)
	default:
		printUsage()

		return errors.New("unknown subcommand")
	}
}

func handleKeygen(flags *ctlFlags) error {
	if err := flags.Keygen.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse keygen flags")
	}

	return runKeygen(os.Stdout)
}

func handleHashPassword(flags *ctlFlags) error {
	if err := flags.Hash.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse hash-password flags")
	}

	return runHashPassword(os.Stdin, os.Stdout, *flags.Hash.cost)
}

func handleInspect(flags *ctlFlags) error {
	if err := flags.Inspect.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse inspect flags")
	}

	if *flags.Inspect.value == "" {
		return errors.New("--cookie flag is required for inspect command")
	}

	return runInspect(os.Stdout, *flags.Inspect.value)
}

func handleCleanup(ctx context.Context, flags *ctlFlags) error {
	if err := flags.Cleanup.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse cleanup flags")
	}

	return runCleanup(ctx)
}

func handleRevoke(ctx context.Context, flags *ctlFlags) error {
	if err := flags.Revoke.cmd.Parse(os.Args[2:]); err != nil {
		return errors.Wrap(err, "failed to parse revoke flags")
	}

	if *flags.Revoke.principal == "" {
		return errors.New("--principal flag is required for revoke command")
	}

	return runRevoke(ctx, *flags.Revoke.principal)
}

func printUsage() {
	fmt.Println("Usage: erpctl <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  keygen          Print fresh token secrets and a carrier key")
	fmt.Println("  hash-password   Hash a password read from stdin")
	fmt.Println("  inspect         Decrypt a session cookie with the configured key")
	fmt.Println("  cleanup         Delete credential records past retention")
	fmt.Println("  revoke          Sign a principal out everywhere")
	fmt.Println("")
	fmt.Println("Use 'erpctl <command> -h' for more information about a command.")
}
