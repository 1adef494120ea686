// Package pkgconfig reads service settings such as the compression service
// base URL, request timeout and upload cap.
//
// Modules depend on the Config interface; NewViper backs it with a YAML file
// that COMPRESSDASH_* environment variables override.
package pkgconfig
