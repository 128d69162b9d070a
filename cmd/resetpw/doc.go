// Command resetpw provides a CLI utility for password management in
// the media share application.
//
// It supports the following operations:
//   - reset: Reset the admin password (requires existing password setup)
//   - status: Check if a password is configured
//
// Usage:
//
//	resetpw <command>
//
// Commands:
//
//	reset   Reset the password for the configured admin account.
//	        This requires that a password has already been set up via
//	        the setup endpoint. All existing sessions will be
//	        invalidated.
//
//	status  Display whether a password is configured. If no password
//	        exists, initial setup must be done via the setup endpoint.
//
// Environment:
//
//	DATABASE_DIR - Path to database directory (default: /database)
//	TABLE_PREFIX - Optional table name prefix
//
// Notes:
//
// The media share application uses a single-admin authentication
// model. Initial password setup must be performed through the setup
// endpoint. This utility is only for resetting an existing password or
// checking configuration status.
package main
