// Package stow turns package directories into symlink farms.
//
// Two linkers share the Linker interface. StowLinker shells out to GNU stow
// from the repository root. FarmLinker builds the same farm natively:
//
//   - a source entry whose destination is absent becomes one relative
//     symlink; for directories this folds the whole tree
//   - an existing real directory is entered and its children are linked
//   - a symlink that already resolves to the source is left alone
//   - anything else is a conflict
//
// FarmLinker plans the whole package before touching the filesystem and
// aborts with LINK_CONFLICT if any destination conflicts, so a package is
// either fully linked or not changed at all.
package stow
