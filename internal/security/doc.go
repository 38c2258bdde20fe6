// Package security confines file access to a single directory.
//
// PathValidator wraps os.Root so that account record files and archive
// extraction can never read or write outside the vault's parent directory,
// even when names come from a tampered archive or contain "..".
package security
