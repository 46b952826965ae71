// Package event_log records what remote parties did: credentials offered,
// commands typed and exec payloads sent. It is separate from the
// operational log in log_service.
package event_log

import "time"

type Kind string

const (
	KindConnect     Kind = "connect"
	KindDisconnect  Kind = "disconnect"
	KindCredentials Kind = "credentials"
	KindShell       Kind = "shell"
	KindExec        Kind = "exec"
)

type Event struct {
	Timestamp time.Time `json:"ts"`
	Remote    string    `json:"remote"`
	Kind      Kind      `json:"kind"`
	Session   string    `json:"session,omitempty"`
	Username  string    `json:"username,omitempty"`
	Password  string    `json:"password,omitempty"`
	Command   string    `json:"command,omitempty"`
	Output    string    `json:"output,omitempty"`
	Exec      string    `json:"exec,omitempty"`
}

type EventLog interface {
	Record(event Event) error
}

func Connect(el EventLog, remote, session string) error {
	return el.Record(Event{Remote: remote, Kind: KindConnect, Session: session})
}

func Disconnect(el EventLog, remote, session string) error {
	return el.Record(Event{Remote: remote, Kind: KindDisconnect, Session: session})
}

func Credentials(el EventLog, remote, username, password string) error {
	return el.Record(Event{Remote: remote, Kind: KindCredentials, Username: username, Password: password})
}

func Shell(el EventLog, remote, session, command, output string) error {
	return el.Record(Event{Remote: remote, Kind: KindShell, Session: session, Command: command, Output: output})
}

func Exec(el EventLog, remote, payload string) error {
	return el.Record(Event{Remote: remote, Kind: KindExec, Exec: payload})
}
