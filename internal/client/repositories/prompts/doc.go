// Package prompts persists prompt records in the local SQLite database.
//
// Every read and write takes the owner key explicitly; rows owned by other
// identities behave as if they did not exist.
package prompts
