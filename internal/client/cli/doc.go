// Package cli implements the mediaxfer command line: a thin host around the
// media transfer client that owns configuration, logging, the local session
// store and result presentation.
//
// Commands
//
//	login     store an access token (prompted without echo on a terminal)
//	logout    forget the stored session
//	whoami    show the stored session
//	process   upload files to an endpoint and materialize the result
//	share     share a previously materialized file
//	version   print build information
package cli
