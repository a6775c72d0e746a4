/*
Package observability tracks bounded calls for diagnostics.

The interesting population is the leaked workers: callables that ignored their
stop signal and kept running after the invoker already received a timeout
error. The Registry keeps those visible until they exit, and the optional
prometheus Metrics expose the same information to scrapers.
*/
package observability
