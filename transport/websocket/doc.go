// Package websocket streams live run updates to browsers.
//
// A central Hub tracks clients per session. Each client gets a read and a
// write goroutine; the hub's Run loop owns registration and fan-out.
//
// Message Protocol:
//
// Every message is one JSON text frame:
//
//	{"session_id": "ab12", "event": "frame", "frame": {...}}
//
// Events:
//   - frame: one tick of an animated run
//   - run_finished: the terminal frame of a run
//   - snapshot: the full view after a REST change (program edit, new maze)
//   - award: an award unlocked; sent to every client
//
// Clients pick their session with ?session=<id> on /ws. Incoming messages
// are ignored.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	svc := service.NewGameService(sessions, configs, ledger,
//		service.WithFrameObserver(hub.BroadcastFrame))
//
// Broadcasting never blocks the caller. When the queue is full the message
// is dropped and logged.
package websocket
