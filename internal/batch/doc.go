// Package batch compares every score in the predicted and ground truth roots.
//
// The Controller pairs files by exact name, runs one comparison per name in
// sorted order, and keeps going when a pair fails. Errors that would fail
// every pair the same way (a bad root, an invalid identifier) abort the run.
// The resulting Summary is written to the results root as JSON and CSV and,
// when a Recorder is configured, stored in the run history.
package batch
