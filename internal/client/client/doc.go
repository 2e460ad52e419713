// Package client contains the CLI's building blocks for talking to the
// account server and for keeping its local state.
//
// The package provides:
//  1. The Client interface covering every account operation the server
//     exposes, and GRPCClient, its gRPC implementation. GRPCClient attaches
//     the current session token to each call through an interceptor and maps
//     gRPC status codes to sentinel errors.
//  2. InitDatabase and RunMigrations, which open the local sqlite session
//     cache and apply its embedded goose migrations.
//
// Callers match failures with errors.Is: ErrUnavailable, ErrUnauthorized,
// ErrInvalidArgument, plus common.ErrorConflict, common.ErrorNotFound and
// common.ErrorRateLimited for the conditions the server reports with those
// meanings.
package client
