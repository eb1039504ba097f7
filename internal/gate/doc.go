// Package gate implements the challenge gate standing between alarm firing
// and silence: it validates answers against the live arithmetic challenge,
// tracks solved count versus quota, triggers escalation on wrong answers and
// signals completion when the quota is reached.
package gate
