// Package engine contains the progression and economy simulation.
// This is the heartbeat of Omertà.
//
// ARCHITECTURAL RULE: all mutations of one player's state tree go through
// that player's Session and are serialized by it. Resolvers never touch
// state outside the session that invoked them, and every operation
// validates fully before mutating anything.
package engine
