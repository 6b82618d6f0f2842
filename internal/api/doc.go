// Package api handles incoming HTTP requests: it decodes and validates
// request bodies, calls the services and shapes their results into the JSON
// contract. All failures are written through HandleAPIError, which owns the
// mapping from error kinds to status codes and client-safe messages.
package api
