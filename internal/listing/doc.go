// Package listing enumerates the files of an Apertium package.
//
// Packages are listed through the Subversion bridge of the Git host:
//
//	svn list --xml [-R] {root}/{package}/trunk
//
// Each listed revision is then resolved to the Git commit it mirrors with
//
//	svn propget git-commit --revprop -r {revision} {root}/{package}/trunk
//
// Revision lookups run concurrently, are deduplicated per listing, and are
// cached across listings.
package listing
