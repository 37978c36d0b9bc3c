// Package daemon wires notistackd together: one ingestion source publishes
// into a broadcaster, and the popup stack and history recorder each consume
// their own subscription. Components run under an errgroup so that a lost
// bus connection stops the whole daemon.
package daemon
