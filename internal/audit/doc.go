// Package audit records who changed what in Tom.Camp Core.
//
// Every mutation that reaches the API (create, update, delete, login and
// device data appends) produces one Entry. Handlers hand entries to a
// Recorder, which persists them in the background through a Repository.
package audit
