// Package middleware provides net/http middleware for the session lifecycle.
//
// Activity reports each handled request as user activity, keeping the idle
// timer fresh for clients that talk to the backend instead of (or in addition
// to) reporting DOM events:
//
//	ctrl, _ := lifecycle.New(store)
//	mux.Handle("/api/", middleware.Activity(ctrl.Monitor())(apiHandler))
//
// The activity kind is read from the X-Activity-Kind header when present;
// requests without one count as pointer activity.
package middleware
