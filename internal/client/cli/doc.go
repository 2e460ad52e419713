// Package cli provides the interactive gophauth command-line client.
//
// It wires configuration, the local session cache, the account service
// client and a REPL. On start it restores a cached session if there is one,
// so a login survives restarts until logout or until the server rejects the
// token.
//
// Commands:
//   - register, login, logout
//   - me                 show the logged-in email
//   - verify <token>     redeem a verification token
//   - resend [email]     resend the verification email
//   - avatar <path>      upload an avatar image
//   - emails             list the emails of all accounts
//   - help, exit
package cli
