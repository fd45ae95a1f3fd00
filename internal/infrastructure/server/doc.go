// Package server assembles the process: storage backend selection, the
// relay bus, the coordinator with startup recovery, the websocket gateway
// and the REST surface, all behind one Run/Close pair.
package server
