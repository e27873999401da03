// Package types defines the film aggregate, its snapshot projection, the
// store and snapshot interfaces, configuration, and the standard errors
// shared by every FilmDeX backend.
package types
