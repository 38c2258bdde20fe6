package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/illarion/fmp/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		runAdd(ctx, os.Args[2:])
	case "rm":
		runRm(ctx, os.Args[2:])
	case "list", "ls":
		runList(ctx, os.Args[2:])
	case "show":
		runShow(ctx, os.Args[2:])
	case "encrypt", "lock":
		runEncrypt(ctx, os.Args[2:])
	case "decrypt", "unlock":
		runDecrypt(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "diff":
		runDiff(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "keyring":
		runKeyring(ctx, os.Args[2:])
	case "completion":
		runCompletion(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// parseArgs parses flags that may appear before or after positional arguments
func parseArgs(fs *flag.FlagSet, args []string) []string {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func runAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	username := fs.String("u", "", "Username for the account")
	generate := fs.Bool("g", false, "Generate a random password")
	length := fs.Int("length", cmd.DefaultPasswordLength, "Length of a generated password")
	positional := parseArgs(fs, args)

	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: fmp add <account> [-u username] [-g] [-length n]")
		os.Exit(1)
	}
	cmd.Add(ctx, positional[0], *username, *generate, *length)
}

func runRm(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	cmd.Remove(ctx, parseArgs(fs, args))
}

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	parseArgs(fs, args)
	cmd.List(ctx)
}

func runShow(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	positional := parseArgs(fs, args)

	if len(positional) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: fmp show <account>")
		os.Exit(1)
	}
	cmd.Show(ctx, positional[0])
}

func runEncrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("encrypt", flag.ExitOnError)
	parseArgs(fs, args)
	cmd.Encrypt(ctx)
}

func runDecrypt(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("decrypt", flag.ExitOnError)
	force := fs.Bool("force", false, "Restore the encrypted copy over an existing decrypted vault")
	parseArgs(fs, args)
	cmd.Decrypt(ctx, *force)
}

func runPasswd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	parseArgs(fs, args)
	cmd.Passwd(ctx)
}

func runDiff(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	show := fs.Bool("show", false, "Show passwords in the diff")
	parseArgs(fs, args)
	cmd.Diff(ctx, *show)
}

func runStatus(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	parseArgs(fs, args)
	cmd.Status(ctx)
}

func runKeyring(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: fmp keyring <save|delete|status>")
		os.Exit(1)
	}

	switch args[0] {
	case "save":
		cmd.KeyringSave()
	case "delete":
		cmd.KeyringDelete()
	case "status":
		cmd.KeyringStatus()
	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Usage: fmp keyring <save|delete|status>")
		os.Exit(1)
	}
}

func runCompletion(_ context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: fmp completion <bash|zsh|fish>")
		os.Exit(1)
	}
	cmd.Completion(args[0])
}

func printUsage() {
	fmt.Println("fmp - a small local password vault")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  fmp <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  add         Add an account (creates the vault on first use)")
	fmt.Println("  rm          Remove accounts")
	fmt.Println("  list, ls    List all accounts")
	fmt.Println("  show        Show a single account")
	fmt.Println("  encrypt     Encrypt the vault (alias: lock)")
	fmt.Println("  decrypt     Decrypt the vault (alias: unlock)")
	fmt.Println("  passwd      Change vault password")
	fmt.Println("  diff        Compare the decrypted vault with the encrypted copy")
	fmt.Println("  status      Show vault status")
	fmt.Println("  keyring     Manage password in OS keyring")
	fmt.Println("  completion  Generate shell completions")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  fmp add github -u octocat -g     # Add an account with a generated password")
	fmt.Println("  fmp list                         # Print every account")
	fmt.Println("  fmp decrypt                      # Leave the vault decrypted for editing")
	fmt.Println("  fmp encrypt                      # Seal it again")
	fmt.Println()
	fmt.Println("Use 'fmp help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "add":
		fmt.Println("fmp add <account> [-u username] [-g] [-length n]")
		fmt.Println()
		fmt.Println("Adds an account record. Prompts for the username when -u is not given")
		fmt.Println("and for the account password unless -g generates one.")
		fmt.Println("On first use the vault is created and you choose its password.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  -u <username>   Username for the account")
		fmt.Println("  -g              Generate a random password")
		fmt.Printf("  -length <n>     Generated password length (default %d)\n", cmd.DefaultPasswordLength)
	case "rm":
		fmt.Println("fmp rm <account> [account...]")
		fmt.Println()
		fmt.Println("Removes accounts. Nothing is removed if any name is unknown.")
	case "list", "ls":
		fmt.Println("fmp list")
		fmt.Println()
		fmt.Println("Prints every account as a table. Set mask_passwords in the config file")
		fmt.Println("to hide the password column.")
	case "show":
		fmt.Println("fmp show <account>")
		fmt.Println()
		fmt.Println("Prints a single account.")
	case "encrypt", "lock":
		fmt.Println("fmp encrypt")
		fmt.Println()
		fmt.Println("Archives and encrypts ~/.fmpVault into ~/.fmpVault.tar.gz.gpg, replacing")
		fmt.Println("any previous encrypted copy, then removes the plaintext vault.")
	case "decrypt", "unlock":
		fmt.Println("fmp decrypt [--force]")
		fmt.Println()
		fmt.Println("Restores ~/.fmpVault from the encrypted copy. The encrypted copy is kept")
		fmt.Println("until the next encrypt.")
		fmt.Println()
		fmt.Println("Flags:")
		fmt.Println("  --force    Restore over an existing decrypted vault")
	case "passwd":
		fmt.Println("fmp passwd")
		fmt.Println()
		fmt.Println("Re-encrypts the encrypted vault under a new password.")
		fmt.Println("Updates the keyring entry if one exists.")
	case "diff":
		fmt.Println("fmp diff [--show]")
		fmt.Println()
		fmt.Println("Compares the decrypted vault with the encrypted copy and lists added,")
		fmt.Println("removed and modified accounts. Passwords are masked unless --show is given.")
	case "status":
		fmt.Println("fmp status")
		fmt.Println()
		fmt.Println("Shows vault state, account count, encryption details, keyring state and,")
		fmt.Println("inside a dotfiles git repository, whether plaintext files are exposed.")
		fmt.Println()
		fmt.Println("Does not require a password.")
	case "keyring":
		fmt.Println("fmp keyring <save|delete|status>")
		fmt.Println()
		fmt.Println("Stores the vault password in the OS keyring so commands do not prompt.")
	case "completion":
		fmt.Println("fmp completion <bash|zsh|fish>")
		fmt.Println()
		fmt.Println("Outputs shell completion script for the specified shell.")
		fmt.Println()
		fmt.Println("Setup:")
		fmt.Println("  # Bash - add to ~/.bashrc")
		fmt.Println("  eval \"$(fmp completion bash)\"")
		fmt.Println()
		fmt.Println("  # Zsh - add to ~/.zshrc")
		fmt.Println("  eval \"$(fmp completion zsh)\"")
		fmt.Println()
		fmt.Println("  # Fish - add to ~/.config/fish/config.fish")
		fmt.Println("  fmp completion fish | source")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
