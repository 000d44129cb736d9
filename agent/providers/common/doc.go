// Package common holds the small set of helpers shared by every agent
// provider variant: HTTP error mapping, error-body reading, model
// selection, and body-close-on-error.
package common
