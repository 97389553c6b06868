/*
Package observability turns engine lifecycle hooks into Prometheus metrics and
structured log lines.

Both producers return a domain.LifecycleHooks value; combine them with
domain.ChainHooks and pass the result to the engine.
*/
package observability
