// Package utils holds small validation and hashing helpers shared by the
// catalog and the API.
package utils
