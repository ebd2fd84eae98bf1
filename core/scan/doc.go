// Package scan compares log counts between two providers and localizes
// disagreements down to individual blocks.
//
// The comparison is two-phase. Phase one queries both providers for one
// aggregate count per stored range; agreeing ranges are done at O(1) extra
// calls. Phase two is paid only for disagreeing ranges: an O(width) per-block
// scan that reports every divergent block. One discrepancy row per
// disagreeing range is persisted, holding the live test-provider count at
// discovery time.
//
// SelectWindow snaps optional approximate bounds onto the nearest stored
// range boundaries so a scan can target a sub-window without knowing exact
// stored edges.
package scan
