// Package storage provides pluggable persistence backends for user records.
//
// # Overview
//
// This package defines the credential store abstraction used by the service
// layer and the authentication middleware. Backends live in sub-packages:
//
//   - storage/mongo: MongoDB document store (default)
//   - storage/postgres: PostgreSQL with goose migrations
//   - storage/cache: LRU and Redis caching decorator for id lookups
//
// An in-memory MemoryStore is provided here for tests and local development.
//
// # Interfaces
//
// The store is composed from focused capabilities:
//
//   - UserReader: GetUserByID, GetUserByEmail, ListUsers (never return the hash)
//   - CredentialReader: GetCredentialsByEmail (login only, includes the hash)
//   - UserWriter: CreateUser, UpdateUser, DeleteUser
//   - HealthChecker: Ping
//
// Email uniqueness is enforced by every backend and surfaces as
// ErrDuplicateEmail. Missing records surface as ErrNotFound, including ids a
// backend cannot parse.
//
// # Instrumentation
//
//	store = storage.Instrument(store, storage.TypeMongo, metrics)
//
// # Related Packages
//
//   - pkg/users: Business operations over UserStore
//   - pkg/middleware: Resolves the token subject with GetUserByID
package storage
