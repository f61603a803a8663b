package transceiver

import (
	"sync/atomic"
)

// A structure utilized for keeping track of various metrics. Currently, mostly used in testing.
type Metrics struct {
	MessagesDelivered uint64 // Number of verified messages we forwarded to the sink.
	MessagesSent      uint64 // Number of outbound messages we published.
	RejectedMessages  uint64 // Number of inbound messages rejected before delivery.
}

// Wrapper function to increment delivered messages. If we want to use mutexes later we can easily update all
// occurrences here.
func (m *Metrics) IncrementMessagesDelivered(inc uint64) {
	atomic.AddUint64(&m.MessagesDelivered, inc)
}

// Wrapper function to increment sent messages. If we want to use mutexes later we can easily update all
// occurrences here.
func (m *Metrics) IncrementMessagesSent(inc uint64) {
	atomic.AddUint64(&m.MessagesSent, inc)
}

// Wrapper function to increment rejected messages. If we want to use mutexes later we can easily update all
// occurrences here.
func (m *Metrics) IncrementRejectedMessages(inc uint64) {
	atomic.AddUint64(&m.RejectedMessages, inc)
}
