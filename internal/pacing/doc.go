// Package pacing groups a spoken word timeline into caption chunks and flags
// chunks that stay on screen for less time than a viewer needs to read them.
package pacing
