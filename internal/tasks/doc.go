// Package tasks tracks song downloads with real-time progress reporting.
//
// # Tracker
//
// [Tracker] owns one [TransferState] per item:
//
//  1. [Tracker.Start] / [Tracker.Run] : check-and-set the item to [InFlight], send the request
//     through the gateway, hand the body to the [Sink]
//     - a second start for an in-flight item fails with [ErrAlreadyInFlight]
//     - progress only moves forward
//     - success sets progress to 100 and notifies the [QuotaNotifier]
//     - failure keeps the last progress; starting again retries
//
//  2. [Tracker.Abandon] : drop interest in an item. Late events from its transfer are
//     ignored and the starter gets [ErrAbandoned]. The request is not cancelled.
//
//  3. [Tracker.StartAll] : batch downloads with bounded concurrency (errgroup) and paced
//     starts (rate limiter)
//
// # Progress Reporting
//
// An optional channel receives [ProgressUpdate] events. Sends use select with default
// so a slow reader never blocks a transfer.
//
// # Sinks
//
// [FileSink] writes bodies to the output directory and tags MP3 files with ID3 frames.
package tasks
