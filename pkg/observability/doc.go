/*
Package observability provides monitoring for the vozgraph engine.

It turns lifecycle hooks into structured log lines and Prometheus metrics, so
transports only need to install hooks on the session manager.
*/
package observability
