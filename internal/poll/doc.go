// Package poll implements the poll controller: the vote tally of one poll and
// the current user's own votes, kept current by optimistic votes and realtime
// poll events.
//
// Votes apply locally before the request is sent. On a poll that enforces a
// unique vote, casting a vote first revokes the user's previous option vote
// from the tally, so two quick votes on different options never both count.
// A failed request restores the tally and own votes as they were, unless a
// newer vote has been started since; a newer vote owns the outcome.
//
// Realtime events carry the server's tally, which always replaces the local
// one. Own votes change only for events caused by the current user.
package poll
