// Package crew builds the agents that write an email with the user:
// clarifier, brief drafter, email drafter, editor, refiner and dispatcher,
// plus the refine loop that alternates editor and refiner.
//
// Agents communicate only through named state slots. Each model agent
// declares the slots its instructions read and the slot it writes.
package crew
