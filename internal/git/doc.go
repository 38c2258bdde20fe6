// Package git reports whether the vault files are safe inside a dotfiles
// repository: the encrypted archive may be committed, the plaintext vault and
// the transient tarball must not be.
package git
