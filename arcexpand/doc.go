// Package arcexpand implements ArcExpander (spec.md §4.2): given a
// frame with its surviving states populated, it enumerates every
// active state's outgoing graph arcs and computes each arc's
// end_loglike, applying the allow-partial final-frame rewrite so a
// best partial path can still terminate when no real final arc is
// reachable.
package arcexpand
