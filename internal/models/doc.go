// Package models holds the domain types shared by the taskmark client and the
// reference backend: the two entity collections (tasks and bookmarks), their
// create and patch payloads, filter and sort descriptions, realtime change
// events, and the user/session types of the auth boundary.
//
// Entities are plain values. Filtering and ordering live on the entity types
// themselves (Matches, Compare) so that the client-side selectors and the
// store's sorted inserts agree with the ORDER BY the server builds for the
// same Sort.
package models
