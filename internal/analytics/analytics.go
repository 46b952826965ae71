// Package analytics aggregates the event log into attack statistics.
package analytics

import (
	"cmp"
	"net"
	"strings"
	"time"

	"github.com/AnishMulay/sandtrap/internal/event_log"
	"golang.org/x/exp/slices"
)

type Count struct {
	Key string `json:"key"`
	N   int    `json:"count"`
}

// Bucket counts source IPs whose connection total falls in [Min, Max).
// Max is 0 for the open-ended last bucket.
type Bucket struct {
	Min int `json:"min"`
	Max int `json:"max,omitempty"`
	IPs int `json:"ips"`
}

var bucketBounds = []int{1, 2, 3, 5, 7, 10, 15, 20, 30, 40}

type Report struct {
	Events              int            `json:"events"`
	EventsByKind        map[string]int `json:"events_by_kind"`
	First               time.Time      `json:"first"`
	Last                time.Time      `json:"last"`
	Connections         int            `json:"connections"`
	GoodConnections     int            `json:"good_connections"`
	UniqueIPs           int            `json:"unique_ips"`
	MaxConnectionsPerIP int            `json:"max_connections_per_ip"`
	AvgConnectionsPerIP float64        `json:"avg_connections_per_ip"`
	MaxPortsPerIP       int            `json:"max_ports_per_ip"`
	AvgPortsPerIP       float64        `json:"avg_ports_per_ip"`
	Distribution        []Bucket       `json:"distribution"`
	AvgSessionDuration  time.Duration  `json:"avg_session_duration"`
	MaxSessionDuration  time.Duration  `json:"max_session_duration"`
	HourlyAverage       [24]float64    `json:"hourly_average"`
	TopIPs              []Count        `json:"top_ips"`
	TopUsernames        []Count        `json:"top_usernames"`
	TopPasswords        []Count        `json:"top_passwords"`
	TopPairs            []Count        `json:"top_pairs"`
	TopCommands         []Count        `json:"top_commands"`
	TopExecs            []Count        `json:"top_execs"`
}

type counter map[string]int

// top returns the n largest entries, ties broken by key. n <= 0 keeps all.
func (c counter) top(n int) []Count {
	out := make([]Count, 0, len(c))
	for k, v := range c {
		out = append(out, Count{Key: k, N: v})
	}
	slices.SortFunc(out, func(a, b Count) int {
		if a.N != b.N {
			return cmp.Compare(b.N, a.N)
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func hostOf(remote string) string {
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}

type connection struct {
	remote string
	start  time.Time
	end    time.Time
	good   bool
}

// Analyze builds a report from events. A connection is good when its remote
// address offered credentials, i.e. it completed the SSH handshake.
func Analyze(events []event_log.Event, topN int) Report {
	r := Report{Events: len(events), EventsByKind: map[string]int{}}

	conns := map[string]*connection{}
	var order []string
	authed := map[string]bool{}
	users, passwords, pairs := counter{}, counter{}, counter{}
	commands, execs := counter{}, counter{}

	for _, e := range events {
		r.EventsByKind[string(e.Kind)]++
		if !e.Timestamp.IsZero() {
			if r.First.IsZero() || e.Timestamp.Before(r.First) {
				r.First = e.Timestamp
			}
			if e.Timestamp.After(r.Last) {
				r.Last = e.Timestamp
			}
		}

		switch e.Kind {
		case event_log.KindConnect:
			if _, ok := conns[e.Session]; !ok {
				order = append(order, e.Session)
			}
			conns[e.Session] = &connection{remote: e.Remote, start: e.Timestamp}
		case event_log.KindDisconnect:
			if c, ok := conns[e.Session]; ok {
				c.end = e.Timestamp
			}
		case event_log.KindCredentials:
			authed[e.Remote] = true
			users[e.Username]++
			passwords[e.Password]++
			pairs[e.Username+":"+e.Password]++
		case event_log.KindShell:
			if name := strings.Fields(e.Command); len(name) > 0 {
				commands[name[0]]++
			}
		case event_log.KindExec:
			execs[e.Exec]++
		}
	}

	perIP := counter{}
	ports := map[string]map[string]bool{}
	hourly := map[int]map[string]int{}
	var total time.Duration
	var timed int

	for _, id := range order {
		c := conns[id]
		c.good = authed[c.remote]
		ip := hostOf(c.remote)

		r.Connections++
		perIP[ip]++
		if ports[ip] == nil {
			ports[ip] = map[string]bool{}
		}
		if _, port, err := net.SplitHostPort(c.remote); err == nil {
			ports[ip][port] = true
		}

		if !c.good {
			continue
		}
		r.GoodConnections++

		if !c.start.IsZero() {
			h := c.start.UTC().Hour()
			if hourly[h] == nil {
				hourly[h] = map[string]int{}
			}
			hourly[h][c.start.UTC().Format("2006-01-02")]++
		}
		if !c.start.IsZero() && !c.end.IsZero() {
			d := c.end.Sub(c.start)
			total += d
			timed++
			if d > r.MaxSessionDuration {
				r.MaxSessionDuration = d
			}
		}
	}

	if timed > 0 {
		r.AvgSessionDuration = total / time.Duration(timed)
	}
	for h, days := range hourly {
		sum := 0
		for _, n := range days {
			sum += n
		}
		r.HourlyAverage[h] = float64(sum) / float64(len(days))
	}

	r.UniqueIPs = len(perIP)
	portTotal := 0
	for ip, n := range perIP {
		r.MaxConnectionsPerIP = max(r.MaxConnectionsPerIP, n)
		r.MaxPortsPerIP = max(r.MaxPortsPerIP, len(ports[ip]))
		portTotal += len(ports[ip])
	}
	if r.UniqueIPs > 0 {
		r.AvgConnectionsPerIP = float64(r.Connections) / float64(r.UniqueIPs)
		r.AvgPortsPerIP = float64(portTotal) / float64(r.UniqueIPs)
	}
	r.Distribution = distribution(perIP)

	r.TopIPs = perIP.top(topN)
	r.TopUsernames = users.top(topN)
	r.TopPasswords = passwords.top(topN)
	r.TopPairs = pairs.top(topN)
	r.TopCommands = commands.top(topN)
	r.TopExecs = execs.top(topN)

	return r
}

func distribution(perIP counter) []Bucket {
	buckets := make([]Bucket, len(bucketBounds))
	for i, lo := range bucketBounds {
		buckets[i].Min = lo
		if i+1 < len(bucketBounds) {
			buckets[i].Max = bucketBounds[i+1]
		}
	}
	for _, n := range perIP {
		i, found := slices.BinarySearch(bucketBounds, n)
		if !found {
			i--
		}
		if i >= 0 {
			buckets[i].IPs++
		}
	}
	return buckets
}
