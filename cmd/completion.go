package cmd

import (
	"fmt"
	"os"
)

// Completion outputs shell completion scripts
func Completion(shell string) {
	switch shell {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "Unknown shell: %s\nSupported: bash, zsh, fish\n", shell)
		os.Exit(1)
	}
}

// Account names are only completed while the vault is decrypted.
const bashCompletion = `_fmp() {
    local cur prev words cword
    _init_completion || return

    local commands="add rm list ls show encrypt lock decrypt unlock passwd diff status keyring help completion"

    if [[ $cword -eq 1 ]]; then
        COMPREPLY=($(compgen -W "$commands" -- "$cur"))
        return
    fi

    local cmd="${words[1]}"
    case "$cmd" in
        add)
            if [[ "$cur" == -* ]]; then
                COMPREPLY=($(compgen -W "-u -g -length" -- "$cur"))
            fi
            ;;
        rm|show)
            local accounts
            accounts=$(ls -1 "${FMP_HOME:-$HOME}/.fmpVault" 2>/dev/null)
            COMPREPLY=($(compgen -W "$accounts" -- "$cur"))
            ;;
        decrypt|unlock)
            COMPREPLY=($(compgen -W "--force" -- "$cur"))
            ;;
        diff)
            COMPREPLY=($(compgen -W "--show" -- "$cur"))
            ;;
        keyring)
            COMPREPLY=($(compgen -W "save delete status" -- "$cur"))
            ;;
        help)
            COMPREPLY=($(compgen -W "$commands" -- "$cur"))
            ;;
        completion)
            COMPREPLY=($(compgen -W "bash zsh fish" -- "$cur"))
            ;;
    esac
}

complete -F _fmp fmp
`

const zshCompletion = `#compdef fmp

_fmp() {
    local -a commands
    commands=(
        'add:Add an account to the vault'
        'rm:Remove accounts from the vault'
        'list:List all accounts'
        'ls:List all accounts'
        'show:Show a single account'
        'encrypt:Encrypt the vault'
        'lock:Encrypt the vault'
        'decrypt:Decrypt the vault'
        'unlock:Decrypt the vault'
        'passwd:Change vault password'
        'diff:Compare decrypted vault with encrypted copy'
        'status:Show vault status'
        'keyring:Manage password in OS keyring'
        'help:Show help for a command'
        'completion:Generate shell completions'
    )

    _arguments -C \
        '1: :->command' \
        '*: :->args'

    case "$state" in
        command)
            _describe -t commands 'fmp commands' commands
            ;;
        args)
            case "${words[2]}" in
                add)
                    _arguments \
                        '-u[Username]:username:' \
                        '-g[Generate a random password]' \
                        '-length[Generated password length]:length:'
                    ;;
                rm|show)
                    _arguments '*:account:_fmp_accounts'
                    ;;
                decrypt|unlock)
                    _arguments '--force[Restore over an existing decrypted vault]'
                    ;;
                diff)
                    _arguments '--show[Show passwords in the diff]'
                    ;;
                keyring)
                    _values 'subcommand' save delete status
                    ;;
                help)
                    _describe -t commands 'fmp commands' commands
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_fmp_accounts() {
    local -a accounts
    accounts=(${(f)"$(ls -1 "${FMP_HOME:-$HOME}/.fmpVault" 2>/dev/null)"})
    _describe -t accounts 'accounts' accounts
}

_fmp "$@"
`

const fishCompletion = `# fmp fish completions

set -l commands add rm list ls show encrypt lock decrypt unlock passwd diff status keyring help completion

complete -c fmp -f

# Commands
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a add -d 'Add an account'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a rm -d 'Remove accounts'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a list -d 'List all accounts'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a ls -d 'List all accounts'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a show -d 'Show a single account'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a encrypt -d 'Encrypt the vault'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a lock -d 'Encrypt the vault'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a decrypt -d 'Decrypt the vault'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a unlock -d 'Decrypt the vault'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a passwd -d 'Change vault password'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a diff -d 'Compare with encrypted copy'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a status -d 'Show vault status'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a keyring -d 'Manage password in OS keyring'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a help -d 'Show help'
complete -c fmp -n "not __fish_seen_subcommand_from $commands" -a completion -d 'Generate completions'

# add flags
complete -c fmp -n "__fish_seen_subcommand_from add" -o u -d 'Username' -r
complete -c fmp -n "__fish_seen_subcommand_from add" -o g -d 'Generate a random password'
complete -c fmp -n "__fish_seen_subcommand_from add" -o length -d 'Generated password length' -r

# account names while decrypted
complete -c fmp -n "__fish_seen_subcommand_from rm show" -a "(ls -1 (set -q FMP_HOME; and echo $FMP_HOME; or echo $HOME)/.fmpVault 2>/dev/null)"

complete -c fmp -n "__fish_seen_subcommand_from decrypt unlock" -l force -d 'Restore over decrypted vault'
complete -c fmp -n "__fish_seen_subcommand_from diff" -l show -d 'Show passwords'

# keyring subcommands
complete -c fmp -n "__fish_seen_subcommand_from keyring" -a "save delete status"

# help completions
complete -c fmp -n "__fish_seen_subcommand_from help" -a "$commands"

# completion completions
complete -c fmp -n "__fish_seen_subcommand_from completion" -a "bash zsh fish"
`
