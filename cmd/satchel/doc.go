// Command satchel is the capture pipeline CLI. Producers enqueue captures
// with `satchel capture`; `satchel process` and `satchel watch` drain the
// queue; the remaining commands inspect and manage the library.
package main
