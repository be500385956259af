// Package slug generates URL-safe profile slugs from user display names.
// Each slug carries a short random suffix so users with the same name get
// distinct profile URLs.
package slug
