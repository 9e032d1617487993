// Package resolvers classifies backend replies for the session coordinator.
//
// A resolver performs exactly one request and turns whatever comes back into
// a tagged outcome. Expected conditions such as 401 or 404 are outcome kinds,
// not errors, and resolvers never touch credentials or session state.
package resolvers
