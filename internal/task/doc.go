// Package task runs units of work on a bounded pool of worker goroutines fed
// from a buffered queue. The subject importer uses it to merge several remote
// subjects concurrently without unbounded fan-out.
package task
