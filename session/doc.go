// Package session decides whether a bearer credential still represents a live
// session.
//
// A credential is accepted when its HS256 signature verifies, its subject maps
// to a stored user, it was issued no earlier than the user's session epoch
// (the later of last login and last logout) minus a grace buffer, and the
// user's stored role is in the caller's allow-list. Logging in again or
// logging out therefore invalidates every token issued before it.
package session
