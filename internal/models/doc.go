// Package models defines domain entities and persistence interfaces for the narrate client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs mirroring backend payloads
//   - [Script] : A formatted script with its detected speakers
//   - [Audio] : A generated audio file reference (signed URL + display name)
//   - [AudioRequest] : The body submitted to start audio generation
//   - [Voice] : A synthesized voice offered by the backend
//   - [Speaker] : A speaker with the gender hint used for auto-assignment
//   - [Subscription] : Current plan and remaining quotas
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [JobRecord] : A finished format or audio job kept in local history
//
// All persistent entities implement the Model interface providing ID generation, timestamps, validation, and soft delete support.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
