// Package mail holds the records the crew passes between stages (content
// brief, email draft, editor feedback), their text and JSON codecs, and the
// Sender abstraction used to deliver the final draft.
package mail
