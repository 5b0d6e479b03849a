// Package github is the production gateway to the GitHub REST and GraphQL
// APIs. The REST surface covers pull request metadata, the unified diff,
// review listing and submission, and review dismissal; review comment and
// thread state come from GraphQL, which also hosts the resolve, minimize,
// and delete mutations.
//
// Every request goes through the transport layer for retries, typed errors,
// structured call logging, and metrics. Responses are mapped to domain types
// at the package boundary so the reconciliation core never sees wire
// formats.
package github
