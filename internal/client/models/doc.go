// Package models defines the console's data model: staged files, the job
// submission request/result pair, and the history ledger snapshot.
package models
