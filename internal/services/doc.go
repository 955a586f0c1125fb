// Package services is the client side of the song backend.
//
// # Gateway
//
// [Gateway] is the only place HTTP requests are made. Every call goes through
// [Gateway.Send] with a [RequestDescriptor]:
//   - the base address is resolved once from configuration
//   - the stored credential is attached as "Authorization: Token <credential>"; calls
//     without one proceed and the backend decides
//   - non-read methods are preceded by an OPTIONS preflight; its failure is logged at
//     debug level and ignored
//   - response bodies are read as JSON, blob or raw bytes
//
// # Errors
//
// Failures are returned, never retried:
//   - [*TransportError] : connection or cross-origin failure ([ErrTransport])
//   - [*ServiceError] : non-2xx status with the body verbatim ([ErrService])
//   - [*TimeoutError] : deadline exceeded ([ErrTimeout])
//
// # Songs
//
// [SongService] decodes the search, song, quota and profile endpoints into
// [models] types.
package services
