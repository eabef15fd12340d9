package utils

import (
	"slices"

	"github.com/nats-io/nats.go"
)

// StreamConfigEqual reports whether the properties the service manages on a
// stream are the same. Server-filled defaults are ignored.
func StreamConfigEqual(a, b nats.StreamConfig) bool {
	return a.Name == b.Name &&
		a.Retention == b.Retention &&
		a.MaxMsgs == b.MaxMsgs &&
		a.MaxAge == b.MaxAge &&
		a.Storage == b.Storage &&
		slices.Equal(a.Subjects, b.Subjects)
}

// ConsumerConfigEqual reports whether the properties the service manages on
// a durable consumer are the same. DeliverSubject is not compared since a
// fresh inbox is generated on every start.
func ConsumerConfigEqual(a, b nats.ConsumerConfig) bool {
	return a.Durable == b.Durable &&
		a.DeliverGroup == b.DeliverGroup &&
		a.AckPolicy == b.AckPolicy &&
		a.AckWait == b.AckWait &&
		a.MaxAckPending == b.MaxAckPending &&
		a.FilterSubject == b.FilterSubject &&
		slices.Equal(a.FilterSubjects, b.FilterSubjects) &&
		a.MaxDeliver == b.MaxDeliver
}
