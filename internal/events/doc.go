// Package events decodes realtime envelopes into a closed set of Go types.
//
// Every envelope is a JSON object keyed by its "type" discriminant. Decode maps
// each known discriminant to a concrete struct embedding Base; callers switch
// on the concrete type. Discriminants this package does not know decode to
// *Unknown so newer servers never break older clients. Envelopes without a
// discriminant, with undecodable payloads, or missing the id a handler needs
// return ErrMalformed; the dispatcher drops those.
package events
