/*
Package ports defines the interfaces through which leash talks to pluggable
infrastructure, plus reusable contract tests that adapter implementations run
against themselves.
*/
package ports
