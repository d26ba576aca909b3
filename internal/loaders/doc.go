// Package loaders dispatches uploaded files to the format loader for their
// extension and stages uploaded bytes in scoped temporary files.
//
// Loaders are registered with the Registry at startup; see NewDefaultRegistry.
package loaders
