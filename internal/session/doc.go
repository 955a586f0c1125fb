// Package session holds the client state shared by every command and view.
//
// A [Session] is created once per process and passed by reference:
//   - [QuotaModel] : daily allowance, authoritative from the backend with an optimistic
//     local decrement after each download
//   - [Playback] : the single selected track (Empty, Paused, Playing)
//   - the download tracker from package tasks, wired to report successes to the quota
//
// [Session.SignOut] is the teardown contract: transfers are abandoned, playback closes,
// the quota returns to its preview and the credential is removed. [Session.WatchStorage]
// applies the same teardown when the credential database is deleted externally.
//
// Components receive [Capabilities] explicitly instead of reading the session.
package session
