// Package fail2ban talks to the fail2ban server over its local Unix socket
// and turns the textual status responses into typed records.
//
// client.go holds the transport: Client.Send opens one connection per
// request, writes a newline-terminated command and reads until the peer
// closes or the response ends with a newline. Every I/O failure, including
// a dial or read deadline, comes back as *TransportError.
//
// parse.go holds the two pure parsers. ParseJailList extracts jail names
// from the "status" response; ParseJailStatus extracts the per-jail
// counters from "status <jail>". Both locate fixed marker tokens instead of
// relying on line positions, and ignore lines they do not recognise.
package fail2ban
