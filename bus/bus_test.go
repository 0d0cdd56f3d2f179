package bus

import (
	"context"
	"sort"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestPublishSubscribe(t *testing.T) {
	c := qt.New(t)
	b := NewBus(4)
	conn := b.NewConnection("rtc")

	sub := conn.Subscribe(T("rtc", "value"))
	conn.Publish(conn.NewMessage(T("rtc", "value"), "12:00:00", false))

	c.Assert(next(c, sub), qt.Equals, "12:00:00")
	c.Assert(sub.Topic().String(), qt.Equals, "rtc/value")
}

func TestRetainedBeforeSubscribe(t *testing.T) {
	c := qt.New(t)
	b := NewBus(2)
	conn := b.NewConnection("rtc")

	conn.Publish(conn.NewMessage(T("rtc", "state"), "ready", true))
	conn.Publish(conn.NewMessage(T("rtc", "state"), "degraded", true))

	sub := conn.Subscribe(T("rtc", "state"))
	c.Assert(next(c, sub), qt.Equals, "degraded")
	expectNone(c, sub)
}

func TestSingleLevelWildcard(t *testing.T) {
	c := qt.New(t)
	b := NewBus(16)
	conn := b.NewConnection("ui")

	verbs := conn.Subscribe(T("rtc", "ctl", SingleLevel))
	any2 := conn.Subscribe(T("rtc", SingleLevel, SingleLevel))
	other := conn.Subscribe(T("rtc", SingleLevel, "aging"))

	conn.Publish(b.NewMessage(T("rtc", "ctl", "read"), "m1", false))
	c.Assert(next(c, verbs), qt.Equals, "m1")
	c.Assert(next(c, any2), qt.Equals, "m1")
	expectNone(c, other)

	// One level too short for any of them.
	conn.Publish(b.NewMessage(T("rtc", "ctl"), "m2", false))
	expectNone(c, verbs)
	expectNone(c, any2)
	expectNone(c, other)
}

func TestMultiLevelWildcard(t *testing.T) {
	c := qt.New(t)
	b := NewBus(16)
	conn := b.NewConnection("ui")

	rtcAll := conn.Subscribe(T("rtc", MultiLevel))
	all := conn.Subscribe(T(MultiLevel))
	ctlAll := conn.Subscribe(T("rtc", "ctl", MultiLevel))
	exact := conn.Subscribe(T("rtc"))

	conn.Publish(b.NewMessage(T("rtc"), "p1", false))
	c.Assert(next(c, rtcAll), qt.Equals, "p1")
	c.Assert(next(c, all), qt.Equals, "p1")
	c.Assert(next(c, exact), qt.Equals, "p1")
	expectNone(c, ctlAll)

	conn.Publish(b.NewMessage(T("rtc", "ctl", "set_time"), "p2", false))
	c.Assert(next(c, rtcAll), qt.Equals, "p2")
	c.Assert(next(c, all), qt.Equals, "p2")
	c.Assert(next(c, ctlAll), qt.Equals, "p2")
	expectNone(c, exact)
}

func TestRetainedWildcardDelivery(t *testing.T) {
	c := qt.New(t)
	b := NewBus(32)
	conn := b.NewConnection("rtc")

	conn.Publish(b.NewMessage(T("rtc", "info"), "info", true))
	conn.Publish(b.NewMessage(T("rtc", "state"), "state", true))
	conn.Publish(b.NewMessage(T("rtc", "value"), "value", true))
	conn.Publish(b.NewMessage(T("config", "rtc"), "cfg", true))

	c.Assert(drain(c, conn.Subscribe(T("rtc", MultiLevel)), 3), qt.DeepEquals,
		[]string{"info", "state", "value"})
	c.Assert(drain(c, conn.Subscribe(T(SingleLevel, "rtc")), 1), qt.DeepEquals,
		[]string{"cfg"})
}

func TestRetainedClearedByNilPayload(t *testing.T) {
	c := qt.New(t)
	b := NewBus(8)
	conn := b.NewConnection("rtc")

	conn.Publish(b.NewMessage(T("rtc", "value"), "stale", true))
	conn.Publish(b.NewMessage(T("rtc", "state"), "ready", true))
	conn.Publish(b.NewMessage(T("rtc", "value"), nil, true))

	sub := conn.Subscribe(T("rtc", MultiLevel))
	c.Assert(drain(c, sub, 1), qt.DeepEquals, []string{"ready"})
	expectNone(c, sub)
}

func TestFullQueueDropsOldest(t *testing.T) {
	c := qt.New(t)
	b := NewBus(2)
	conn := b.NewConnection("rtc")
	sub := conn.Subscribe(T("rtc", "value"))

	for _, p := range []string{"a", "b", "c"} {
		conn.Publish(b.NewMessage(T("rtc", "value"), p, false))
	}
	c.Assert(drain(c, sub, 2), qt.DeepEquals, []string{"b", "c"})
}

func TestUnsubscribeAndDisconnect(t *testing.T) {
	c := qt.New(t)
	b := NewBus(4)
	conn := b.NewConnection("ui")

	s1 := conn.Subscribe(T("rtc", "value"))
	s2 := conn.Subscribe(T("rtc", "state"))
	s1.Unsubscribe()
	_, ok := <-s1.Channel()
	c.Assert(ok, qt.IsFalse)

	// A second unsubscribe is a no-op.
	conn.Unsubscribe(s1)

	conn.Disconnect()
	_, ok = <-s2.Channel()
	c.Assert(ok, qt.IsFalse)

	// Publishing after everything is gone must not panic.
	conn.Publish(b.NewMessage(T("rtc", "value"), "x", false))
}

func TestRequestWait(t *testing.T) {
	c := qt.New(t)
	b := NewBus(8)
	ui := b.NewConnection("ui")
	svc := b.NewConnection("rtc")

	ctl := svc.Subscribe(T("rtc", "ctl", SingleLevel))
	defer svc.Unsubscribe(ctl)
	go func() {
		if msg, ok := <-ctl.Channel(); ok {
			c.Check(msg.CanReply(), qt.IsTrue)
			svc.Reply(msg, "ok", false)
		}
	}()

	req := ui.NewMessage(T("rtc", "ctl", "read"), nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := ui.RequestWait(ctx, req)
	c.Assert(err, qt.IsNil)
	c.Assert(reply.Payload, qt.Equals, "ok")
	c.Assert(req.ReplyTo, qt.HasLen, 3)
	c.Assert(req.ReplyTo[1], qt.Equals, "ui")
	c.Assert(reply.Topic, qt.DeepEquals, req.ReplyTo)
}

func TestRequestWaitTimeout(t *testing.T) {
	c := qt.New(t)
	b := NewBus(8)
	ui := b.NewConnection("ui")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := ui.RequestWait(ctx, ui.NewMessage(T("rtc", "ctl", "read"), nil, false))
	c.Assert(err, qt.Equals, context.DeadlineExceeded)
}

func TestRequestKeepsSubscription(t *testing.T) {
	c := qt.New(t)
	b := NewBus(8)
	ui := b.NewConnection("ui")
	svc := b.NewConnection("rtc")

	ctl := svc.Subscribe(T("rtc", "ctl", "aging"))
	defer svc.Unsubscribe(ctl)

	replies := ui.Request(ui.NewMessage(T("rtc", "ctl", "aging"), nil, false))
	defer ui.Unsubscribe(replies)

	msg := <-ctl.Channel()
	svc.Reply(msg, map[string]any{"offset": -3}, false)
	svc.Reply(msg, map[string]any{"offset": 5}, false)

	c.Assert(nextAny(c, replies), qt.DeepEquals, map[string]any{"offset": -3})
	c.Assert(nextAny(c, replies), qt.DeepEquals, map[string]any{"offset": 5})
}

func TestReplyWithoutReplyTo(t *testing.T) {
	c := qt.New(t)
	b := NewBus(4)
	conn := b.NewConnection("rtc")
	all := conn.Subscribe(T(MultiLevel))

	msg := conn.NewMessage(T("rtc", "ctl", "read"), nil, false)
	c.Assert(msg.CanReply(), qt.IsFalse)
	conn.Reply(msg, "ignored", false)
	expectNone(c, all)
}

func TestTopic(t *testing.T) {
	c := qt.New(t)
	base := T("rtc", "alarm")
	c.Assert(base.Append(1).String(), qt.Equals, "rtc/alarm/1")
	c.Assert(base, qt.HasLen, 2)
	c.Assert(func() { T([]byte{1}) }, qt.PanicMatches, "bus: topic token .*")
	c.Assert(func() { T("rtc", uint8(1)) }, qt.PanicMatches, "bus: topic token .*")
	c.Assert(func() { T("rtc", true) }, qt.PanicMatches, "bus: topic token .*")
	c.Assert(func() { base.Append(int64(1)) }, qt.PanicMatches, "bus: topic token .*")
}

// ---- helpers ----

func nextAny(c *qt.C, sub *Subscription) any {
	c.Helper()
	select {
	case m := <-sub.Channel():
		return m.Payload
	case <-time.After(200 * time.Millisecond):
		c.Fatalf("timeout on %s", sub.Topic())
		return nil
	}
}

func next(c *qt.C, sub *Subscription) string {
	c.Helper()
	s, ok := nextAny(c, sub).(string)
	c.Assert(ok, qt.IsTrue)
	return s
}

func expectNone(c *qt.C, sub *Subscription) {
	c.Helper()
	select {
	case m := <-sub.Channel():
		c.Fatalf("unexpected message on %s: %#v", sub.Topic(), m.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

// drain reads n string payloads and returns them sorted.
func drain(c *qt.C, sub *Subscription, n int) []string {
	c.Helper()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, next(c, sub))
	}
	sort.Strings(out)
	return out
}
