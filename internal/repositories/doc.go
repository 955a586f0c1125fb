// Package repositories implements SQLite persistence for client-side state.
//
// The only state that outlives a process is the session credential:
//   - [KVRepository] : string values in the kv_store table
//   - [TokenStore] : the credential under one fixed key; absence is a valid state
//
// [TokenStore] also implements [oauth2.TokenSource] so the request gateway can attach the
// credential with the standard header helpers. The token type is "Token", producing
// "Authorization: Token <credential>".
package repositories
