// Package fetcher turns "count logs over [from, to]" into a
// total-or-smallest-failing-subrange outcome.
//
// A window is processed through a work stack of pending sub-ranges. Each
// sub-range gets one counter call (already retried at the transport layer);
// a failing sub-range wider than the minimum splittable width is bisected
// into two independent halves, otherwise the whole fetch fails with that
// sub-range and its cause. The sum is order-independent, so processing order
// only affects which failure is discovered first.
//
// The fetcher itself never persists anything. It reports the resolved parts
// in ascending order so the caller can store one row per successfully counted
// sub-range after the window reaches a terminal outcome.
package fetcher
