// Package poller implements the Synchronization Loop.
//
// The loop:
//   - Ticks once on start, then on a fixed interval (default 4s)
//   - Ticks once more, out of cadence, for each Refresh signal
//   - Fetches the order book and the trade feed concurrently per tick
//   - Republishes a dimension only when the change detector reports a change
//   - Keeps the last good snapshot on failure and reports the error separately
//   - Never runs two ticks at once; timer firings during a tick are skipped
//   - Publishes nothing after Stop, even for fetches already in flight
package poller
