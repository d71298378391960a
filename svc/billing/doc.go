// Package billing owns the plan catalog and the order ledger.
//
// A Ledger creates orders through a payment Gateway, verifies them exactly
// once and resolves verified orders to the access tier they grant. Orders
// move from pending to verified or failed once and never change again.
//
// Verification of a single order is collapsed in-process with singleflight,
// claimed across processes through a Locker and committed with a conditional
// Store.Transition, so concurrent callers trigger at most one gateway check
// and all observe the same outcome. Gateway calls run under a bounded
// timeout; a timeout during verification leaves the order pending.
//
// Stores: MemoryStore, PostgresStore. Lockers: MemoryLocker, RedisLocker.
// Gateways: PaddleGateway, LocalGateway, optionally wrapped by BreakerGateway.
package billing
